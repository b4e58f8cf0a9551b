// Package config handles configuration loading for crowdfolio.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Etoro     EtoroConfig     `mapstructure:"etoro"     yaml:"etoro"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"`
	Report    ReportConfig    `mapstructure:"report"    yaml:"report"`
	News      NewsConfig      `mapstructure:"news"      yaml:"news"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// EtoroConfig holds upstream API client settings.
type EtoroConfig struct {
	BaseURL       string `mapstructure:"base_url"        yaml:"base_url"`
	MinIntervalMS int    `mapstructure:"min_interval_ms" yaml:"min_interval_ms"`
	TimeoutSec    int    `mapstructure:"timeout_sec"     yaml:"timeout_sec"`
	BatchSize     int    `mapstructure:"batch_size"      yaml:"batch_size"`
	BatchDelayMS  int    `mapstructure:"batch_delay_ms"  yaml:"batch_delay_ms"`
}

// CollectorConfig holds collection pacing settings.
type CollectorConfig struct {
	FetchTradeStats      bool    `mapstructure:"fetch_trade_stats"      yaml:"fetch_trade_stats"`
	FailureLimit         int     `mapstructure:"failure_limit"          yaml:"failure_limit"`
	BreakerCooldownSec   int     `mapstructure:"breaker_cooldown_sec"   yaml:"breaker_cooldown_sec"`
	BrakeErrorRate       float64 `mapstructure:"brake_error_rate"       yaml:"brake_error_rate"`
	BrakePauseSec        int     `mapstructure:"brake_pause_sec"        yaml:"brake_pause_sec"`
	CheckpointEvery      int     `mapstructure:"checkpoint_every"       yaml:"checkpoint_every"`
	CheckpointPauseSec   int     `mapstructure:"checkpoint_pause_sec"   yaml:"checkpoint_pause_sec"`
}

// AnalysisConfig holds aggregation settings.
type AnalysisConfig struct {
	BandSizes    []int  `mapstructure:"band_sizes"    yaml:"band_sizes"`
	Period       string `mapstructure:"period"        yaml:"period"`
	MaxInvestors int    `mapstructure:"max_investors" yaml:"max_investors"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Title     string `mapstructure:"title"      yaml:"title"`
	Author    string `mapstructure:"author"     yaml:"author"`
}

// NewsConfig holds market-news sidebar settings.
type NewsConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Limit   int      `mapstructure:"limit"   yaml:"limit"`
	Feeds   []string `mapstructure:"feeds"   yaml:"feeds"`
}

// MinInterval returns the client throttle interval as a duration.
func (e EtoroConfig) MinInterval() time.Duration {
	return time.Duration(e.MinIntervalMS) * time.Millisecond
}

// Timeout returns the per-request timeout as a duration.
func (e EtoroConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

// BatchDelay returns the inter-batch pause as a duration.
func (e EtoroConfig) BatchDelay() time.Duration {
	return time.Duration(e.BatchDelayMS) * time.Millisecond
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.crowdfolio/config.yaml (home directory)
//  3. /etc/crowdfolio/config.yaml (system)
//
// Environment variables override config file values.
// Format: CROWDFOLIO_<SECTION>_<KEY>, e.g., CROWDFOLIO_API_PORT
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".crowdfolio"))
	v.AddConfigPath("/etc/crowdfolio")

	v.SetEnvPrefix("CROWDFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("CROWDFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Upstream client defaults (polite pacing)
	v.SetDefault("etoro.base_url", "https://www.etoro.com")
	v.SetDefault("etoro.min_interval_ms", 1100)
	v.SetDefault("etoro.timeout_sec", 15)
	v.SetDefault("etoro.batch_size", 50)
	v.SetDefault("etoro.batch_delay_ms", 500)

	// Collector defaults
	v.SetDefault("collector.fetch_trade_stats", true)
	v.SetDefault("collector.failure_limit", 10)
	v.SetDefault("collector.breaker_cooldown_sec", 30)
	v.SetDefault("collector.brake_error_rate", 0.30)
	v.SetDefault("collector.brake_pause_sec", 60)
	v.SetDefault("collector.checkpoint_every", 50)
	v.SetDefault("collector.checkpoint_pause_sec", 5)

	// Analysis defaults
	v.SetDefault("analysis.band_sizes", []int{100, 500, 1000, 1500})
	v.SetDefault("analysis.period", "CurrYear")
	v.SetDefault("analysis.max_investors", 1000)

	// Report defaults
	v.SetDefault("report.output_dir", "./reports")
	v.SetDefault("report.title", "Popular Investor Crowd Report")
	v.SetDefault("report.author", "crowdfolio")

	// News defaults
	v.SetDefault("news.enabled", true)
	v.SetDefault("news.limit", 12)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
