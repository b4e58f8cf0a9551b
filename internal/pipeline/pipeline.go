// Package pipeline wires one collection run end to end: rankings →
// portfolios → metadata batches → band analyses → persisted snapshot and
// HTML report. It is the only place that knows the phase ordering and
// how the 0..100 progress range is split across phases.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/crowdfolio/crowdfolio/internal/analysis"
	"github.com/crowdfolio/crowdfolio/internal/collector"
	"github.com/crowdfolio/crowdfolio/internal/etoro"
	"github.com/crowdfolio/crowdfolio/internal/news"
	"github.com/crowdfolio/crowdfolio/internal/progress"
	"github.com/crowdfolio/crowdfolio/internal/report"
	"github.com/crowdfolio/crowdfolio/internal/snapshot"
)

// Progress range boundaries per phase.
const (
	pctRankingsDone = 5.0
	pctCollectDone  = 70.0
	pctBatchDone    = 82.0
	pctAnalyzeDone  = 92.0
)

// Options configures one run.
type Options struct {
	Period       etoro.Period
	MaxInvestors int
	BandSizes    []int
}

// Result summarizes a finished run.
type Result struct {
	Snapshot     *snapshot.Snapshot
	SnapshotPath string
	ReportPath   string
	Duration     time.Duration
}

// Pipeline owns the collaborators of a run. Construct once, reuse across
// runs; the eToro client's shared throttle then spans all of them.
type Pipeline struct {
	client    *etoro.Client
	collector *collector.Collector
	store     *snapshot.Store
	news      *news.Service // nil disables the news sidebar
	reportCfg report.Config
}

// New creates a pipeline.
func New(client *etoro.Client, coll *collector.Collector, store *snapshot.Store, newsSvc *news.Service, reportCfg report.Config) *Pipeline {
	return &Pipeline{
		client:    client,
		collector: coll,
		store:     store,
		news:      newsSvc,
		reportCfg: reportCfg,
	}
}

// Run executes one full collection. Per-investor failures degrade the
// run; only an empty rankings listing (or context cancellation) is
// fatal. The progress callback receives (0..100, message) tuples and is
// always sent a final 100 before Run returns successfully.
func (p *Pipeline) Run(ctx context.Context, opts Options, progressFn progress.Func) (*Result, error) {
	if progressFn == nil {
		progressFn = progress.Discard
	}
	if opts.MaxInvestors <= 0 {
		opts.MaxInvestors = 1000
	}
	if len(opts.BandSizes) == 0 {
		opts.BandSizes = analysis.DefaultBandSizes
	}
	start := time.Now()

	progressFn(0, fmt.Sprintf("fetching popular investor rankings (%s)", opts.Period))
	investors, err := p.client.PopularInvestors(ctx, opts.Period, opts.MaxInvestors)
	if err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	progressFn(pctRankingsDone, fmt.Sprintf("found %d popular investors", len(investors)))

	collected, err := p.collector.Collect(ctx, investors,
		progress.Slice(progressFn, pctRankingsDone, pctCollectDone))
	if err != nil {
		return nil, fmt.Errorf("collect portfolios: %w", err)
	}
	errorCount := collector.ErrorCount(collected)

	// Metadata for every instrument and username touched by the run.
	instrumentIDs := collectInstrumentIDs(collected)
	usernames := collectUsernames(collected)

	progressFn(pctCollectDone, fmt.Sprintf("resolving metadata for %d instruments, %d users", len(instrumentIDs), len(usernames)))
	meta := p.client.Instruments(ctx, instrumentIDs)
	rates := p.client.Rates(ctx, instrumentIDs)
	users := p.client.Users(ctx, usernames)
	progressFn(pctBatchDone, fmt.Sprintf("resolved %d instruments, %d rates, %d users", len(meta), len(rates), len(users)))

	analysis.SortByCopiers(collected)
	bandSizes := analysis.BandSizes(opts.BandSizes, len(collected))
	analyses := analysis.AnalyzeBands(collected, meta, rates, bandSizes,
		progress.Slice(progressFn, pctBatchDone, pctAnalyzeDone))

	snap := &snapshot.Snapshot{
		CollectedAt: start.UTC(),
		Period:      opts.Period,
		Investors:   collected,
		Instruments: meta,
		Rates:       rates,
		Users:       users,
		Analyses:    analyses,
		ErrorCount:  errorCount,
	}

	progressFn(pctAnalyzeDone, "rendering report")
	result := &Result{Snapshot: snap}

	var headlines []news.Article
	if p.news != nil {
		headlines = p.news.Headlines(ctx, 12)
	}

	html, err := p.renderHTML(snap, headlines)
	if err != nil {
		// A broken template should not lose the collected data.
		log.Printf("pipeline: render report: %v", err)
	}

	if p.store != nil {
		result.SnapshotPath, err = p.store.Save(snap)
		if err != nil {
			return nil, fmt.Errorf("persist snapshot: %w", err)
		}
		if html != "" {
			result.ReportPath, err = p.store.SaveReport(snap.CollectedAt, html)
			if err != nil {
				return nil, fmt.Errorf("persist report: %w", err)
			}
		}
	}

	result.Duration = time.Since(start)
	progressFn(100, fmt.Sprintf("run complete: %d investors, %d errors, %d bands in %s",
		len(collected), errorCount, len(analyses), result.Duration.Round(time.Second)))
	return result, nil
}

func (p *Pipeline) renderHTML(snap *snapshot.Snapshot, headlines []news.Article) (string, error) {
	return report.GenerateHTML(snap, headlines, p.reportCfg)
}

func collectInstrumentIDs(collected []collector.CollectedInvestor) []int64 {
	var ids []int64
	for _, ci := range collected {
		for _, pos := range ci.Portfolio.Positions {
			ids = append(ids, pos.InstrumentID)
		}
	}
	return ids
}

func collectUsernames(collected []collector.CollectedInvestor) []string {
	names := make([]string, 0, len(collected))
	for _, ci := range collected {
		names = append(names, ci.Investor.Username)
		for _, st := range ci.Portfolio.SocialTrades {
			names = append(names, st.ParentUsername)
		}
	}
	return names
}
