package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	envVars := []string{
		"CROWDFOLIO_API_PORT", "CROWDFOLIO_API_HOST",
		"CROWDFOLIO_ETORO_BASE_URL", "CROWDFOLIO_ANALYSIS_PERIOD",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Upstream client defaults
	if cfg.Etoro.BaseURL != "https://www.etoro.com" {
		t.Errorf("Etoro.BaseURL: got %q", cfg.Etoro.BaseURL)
	}
	if cfg.Etoro.MinIntervalMS != 1100 {
		t.Errorf("Etoro.MinIntervalMS: got %d, want 1100", cfg.Etoro.MinIntervalMS)
	}
	if cfg.Etoro.TimeoutSec != 15 {
		t.Errorf("Etoro.TimeoutSec: got %d, want 15", cfg.Etoro.TimeoutSec)
	}
	if cfg.Etoro.BatchSize != 50 {
		t.Errorf("Etoro.BatchSize: got %d, want 50", cfg.Etoro.BatchSize)
	}

	// Collector defaults
	if !cfg.Collector.FetchTradeStats {
		t.Error("Collector.FetchTradeStats should be true by default")
	}
	if cfg.Collector.FailureLimit != 10 {
		t.Errorf("Collector.FailureLimit: got %d, want 10", cfg.Collector.FailureLimit)
	}
	if cfg.Collector.BreakerCooldownSec != 30 {
		t.Errorf("Collector.BreakerCooldownSec: got %d, want 30", cfg.Collector.BreakerCooldownSec)
	}
	if cfg.Collector.BrakeErrorRate != 0.30 {
		t.Errorf("Collector.BrakeErrorRate: got %f, want 0.30", cfg.Collector.BrakeErrorRate)
	}
	if cfg.Collector.CheckpointEvery != 50 {
		t.Errorf("Collector.CheckpointEvery: got %d, want 50", cfg.Collector.CheckpointEvery)
	}

	// Analysis defaults
	if len(cfg.Analysis.BandSizes) != 4 || cfg.Analysis.BandSizes[0] != 100 {
		t.Errorf("Analysis.BandSizes: got %v", cfg.Analysis.BandSizes)
	}
	if cfg.Analysis.Period != "CurrYear" {
		t.Errorf("Analysis.Period: got %q, want %q", cfg.Analysis.Period, "CurrYear")
	}
	if cfg.Analysis.MaxInvestors != 1000 {
		t.Errorf("Analysis.MaxInvestors: got %d, want 1000", cfg.Analysis.MaxInvestors)
	}

	// Report defaults
	if cfg.Report.OutputDir != "./reports" {
		t.Errorf("Report.OutputDir: got %q", cfg.Report.OutputDir)
	}
	if cfg.Report.Title != "Popular Investor Crowd Report" {
		t.Errorf("Report.Title: got %q", cfg.Report.Title)
	}

	// News defaults
	if !cfg.News.Enabled {
		t.Error("News.Enabled should be true by default")
	}
	if cfg.News.Limit != 12 {
		t.Errorf("News.Limit: got %d, want 12", cfg.News.Limit)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
api:
  host: "127.0.0.1"
  port: 9090
etoro:
  min_interval_ms: 2000
  batch_size: 25
collector:
  fetch_trade_stats: false
  failure_limit: 5
analysis:
  band_sizes: [50, 200]
  period: "LastYear"
  max_investors: 400
report:
  output_dir: "/tmp/reports"
news:
  enabled: false
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Unsetenv("CROWDFOLIO_API_PORT")
	os.Unsetenv("CROWDFOLIO_ANALYSIS_PERIOD")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Etoro.MinIntervalMS != 2000 {
		t.Errorf("Etoro.MinIntervalMS: got %d, want 2000", cfg.Etoro.MinIntervalMS)
	}
	if cfg.Etoro.BatchSize != 25 {
		t.Errorf("Etoro.BatchSize: got %d, want 25", cfg.Etoro.BatchSize)
	}
	if cfg.Collector.FetchTradeStats {
		t.Error("Collector.FetchTradeStats should be overridden to false")
	}
	if cfg.Collector.FailureLimit != 5 {
		t.Errorf("Collector.FailureLimit: got %d, want 5", cfg.Collector.FailureLimit)
	}
	if len(cfg.Analysis.BandSizes) != 2 || cfg.Analysis.BandSizes[1] != 200 {
		t.Errorf("Analysis.BandSizes: got %v", cfg.Analysis.BandSizes)
	}
	if cfg.Analysis.Period != "LastYear" {
		t.Errorf("Analysis.Period: got %q, want %q", cfg.Analysis.Period, "LastYear")
	}
	if cfg.Report.OutputDir != "/tmp/reports" {
		t.Errorf("Report.OutputDir: got %q", cfg.Report.OutputDir)
	}
	if cfg.News.Enabled {
		t.Error("News.Enabled should be overridden to false")
	}
	// Values absent from the file keep their defaults.
	if cfg.Etoro.TimeoutSec != 15 {
		t.Errorf("Etoro.TimeoutSec: got %d, want default 15", cfg.Etoro.TimeoutSec)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Duration helpers ──

func TestEtoroDurationHelpers(t *testing.T) {
	e := EtoroConfig{MinIntervalMS: 1100, TimeoutSec: 15, BatchDelayMS: 500}
	if e.MinInterval() != 1100*time.Millisecond {
		t.Errorf("MinInterval: got %v", e.MinInterval())
	}
	if e.Timeout() != 15*time.Second {
		t.Errorf("Timeout: got %v", e.Timeout())
	}
	if e.BatchDelay() != 500*time.Millisecond {
		t.Errorf("BatchDelay: got %v", e.BatchDelay())
	}
}
