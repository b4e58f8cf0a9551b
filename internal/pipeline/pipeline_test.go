package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crowdfolio/crowdfolio/internal/collector"
	"github.com/crowdfolio/crowdfolio/internal/etoro"
	"github.com/crowdfolio/crowdfolio/internal/report"
	"github.com/crowdfolio/crowdfolio/internal/snapshot"
)

// fakeEtoro serves every endpoint a full run touches: rankings, public
// portfolios, trade stats, instrument metadata, closing rates, and user
// info. Portfolio fetches for usernames in failPortfolios return 500.
type fakeEtoro struct {
	investors      int
	failPortfolios map[string]bool
}

func (f *fakeEtoro) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/sapi/rankings/rankings", func(w http.ResponseWriter, r *http.Request) {
		var items []map[string]any
		for i := 0; i < f.investors; i++ {
			items = append(items, map[string]any{
				"UserName":  fmt.Sprintf("trader%d", i),
				"Gain":      float64(5 + i),
				"RiskScore": 1 + i%10,
				"Copiers":   f.investors - i,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"TotalRows": f.investors, "Items": items})
	})

	mux.HandleFunc("/sapi/trade-data-real/live/public/portfolios", func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if f.failPortfolios[username] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"AggregatedPositions": []map[string]any{
				{"InstrumentID": 1001, "Invested": 55.0, "Value": 56.0},
				{"InstrumentID": 1002, "Invested": 15.0, "Value": 14.0},
			},
		})
	})

	mux.HandleFunc("/sapi/userstats/stats/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"Trades": 42, "WinRatio": 60.0})
	})

	mux.HandleFunc("/sapi/instrumentsmetadata/V1.1/instruments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"InstrumentDisplayDatas": []map[string]any{
				{"InstrumentID": 1001, "InstrumentDisplayName": "Acme Corp", "SymbolFull": "ACME"},
				{"InstrumentID": 1002, "InstrumentDisplayName": "Globex", "SymbolFull": "GBX"},
			},
		})
	})

	mux.HandleFunc("/sapi/candles/closingprices.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"Rates": []map[string]any{
				{"InstrumentID": 1001, "PriorDayChangePct": 1.1, "WeekToDateChangePct": 2.2, "MonthToDateChangePct": 3.3},
			},
		})
	})

	mux.HandleFunc("/api/logininfo/v1.1/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"Users": []map[string]any{{"UserName": "trader0", "CountryId": 4}},
		})
	})

	return mux
}

// testPipeline wires a pipeline against the fake API with all pacing
// disabled and a temp-dir snapshot store.
func testPipeline(t *testing.T, fake *fakeEtoro) (*Pipeline, *snapshot.Store) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client := etoro.NewClient(etoro.Config{
		BaseURL:     srv.URL,
		MinInterval: time.Nanosecond,
	})

	cfg := collector.DefaultConfig()
	cfg.FetchTradeStats = true
	cfg.BreakerCooldown = 0
	cfg.RateLimitPenalty = 0
	cfg.DelayCalm = 0
	cfg.DelayNormal = 0
	cfg.DelayElevated = 0
	cfg.DelayHigh = 0
	cfg.CheckpointPause = 0
	cfg.BrakePause = 0
	coll := collector.New(client, cfg)

	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return New(client, coll, store, nil, report.DefaultConfig()), store
}

func TestRunEndToEnd(t *testing.T) {
	pipe, store := testPipeline(t, &fakeEtoro{investors: 12})

	var lastPct float64
	result, err := pipe.Run(context.Background(), Options{
		Period:       etoro.PeriodCurrYear,
		MaxInvestors: 12,
		BandSizes:    []int{5, 10},
	}, func(pct float64, msg string) {
		if pct < lastPct {
			t.Errorf("progress went backward: %v after %v (%s)", pct, lastPct, msg)
		}
		lastPct = pct
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lastPct != 100 {
		t.Errorf("final progress = %v, want 100", lastPct)
	}

	snap := result.Snapshot
	if len(snap.Investors) != 12 {
		t.Errorf("collected %d investors, want 12", len(snap.Investors))
	}
	if snap.ErrorCount != 0 {
		t.Errorf("error count = %d", snap.ErrorCount)
	}
	// Requested 5 and 10 fit; 12 collected exceeds the largest band, so
	// the full set is appended as its own band.
	sizes := make([]int, len(snap.Analyses))
	for i, ba := range snap.Analyses {
		sizes[i] = ba.BandSize
	}
	if len(sizes) != 3 || sizes[0] != 5 || sizes[1] != 10 || sizes[2] != 12 {
		t.Errorf("band sizes = %v, want [5 10 12]", sizes)
	}

	// Metadata join happened.
	if snap.Instruments[1001].Name != "Acme Corp" {
		t.Errorf("instrument metadata = %+v", snap.Instruments[1001])
	}
	// Trade stats enrichment overwrote the ranking figures.
	if snap.Investors[0].Investor.Trades != 42 {
		t.Errorf("trade stats not merged: %+v", snap.Investors[0].Investor)
	}

	// Both artifacts persisted.
	if _, err := os.Stat(result.SnapshotPath); err != nil {
		t.Errorf("snapshot file: %v", err)
	}
	if result.ReportPath == "" {
		t.Fatal("no report written")
	}
	html, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("report file: %v", err)
	}
	if !strings.Contains(string(html), "Acme Corp") {
		t.Error("report missing holdings table content")
	}

	// Round-trips through the store.
	loaded, err := store.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if len(loaded.Investors) != 12 {
		t.Errorf("reloaded snapshot has %d investors", len(loaded.Investors))
	}
}

func TestRunDegradesOnPortfolioFailures(t *testing.T) {
	pipe, _ := testPipeline(t, &fakeEtoro{
		investors:      6,
		failPortfolios: map[string]bool{"trader1": true, "trader4": true},
	})

	result, err := pipe.Run(context.Background(), Options{
		Period:       etoro.PeriodCurrYear,
		MaxInvestors: 6,
		BandSizes:    []int{6},
	}, nil)
	if err != nil {
		t.Fatalf("per-investor failures must not fail the run: %v", err)
	}
	if result.Snapshot.ErrorCount != 2 {
		t.Errorf("error count = %d, want 2", result.Snapshot.ErrorCount)
	}
	if len(result.Snapshot.Investors) != 6 {
		t.Errorf("all investors must appear in the snapshot, got %d", len(result.Snapshot.Investors))
	}
}

func TestRunEmptyRankingsIsFatal(t *testing.T) {
	pipe, _ := testPipeline(t, &fakeEtoro{investors: 0})

	_, err := pipe.Run(context.Background(), Options{
		Period:       etoro.PeriodCurrYear,
		MaxInvestors: 10,
	}, nil)
	if err == nil {
		t.Fatal("expected fatal error for empty rankings")
	}
	if !strings.Contains(err.Error(), "rankings") {
		t.Errorf("error = %v", err)
	}
}

func TestRunContextCancellation(t *testing.T) {
	pipe, _ := testPipeline(t, &fakeEtoro{investors: 50})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipe.Run(ctx, Options{
		Period:       etoro.PeriodCurrYear,
		MaxInvestors: 50,
	}, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestCollectInstrumentIDs(t *testing.T) {
	collected := []collector.CollectedInvestor{
		{Portfolio: etoro.Portfolio{Positions: []etoro.Position{
			{InstrumentID: 1}, {InstrumentID: 2}, {InstrumentID: 1},
		}}},
		{Portfolio: etoro.Portfolio{Positions: []etoro.Position{{InstrumentID: 2}}}},
	}
	ids := collectInstrumentIDs(collected)
	// The client dedupes again; here duplicates across investors are fine
	// but the result must cover every held instrument.
	seen := make(map[int64]bool)
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("ids = %v, want coverage of instruments 1 and 2", ids)
	}
}
