// Package collector walks a list of popular investors and fetches each
// one's public portfolio (and optionally trade stats), sequentially.
//
// The upstream API tolerates this kind of crawl only when it is slow and
// polite, so the collector self-throttles instead of failing: an adaptive
// inter-request delay grows with the running error rate, a circuit
// breaker cools down after consecutive failures, and an emergency brake
// pauses the whole run when the error rate gets out of hand. Individual
// failures are recorded on the result, never raised.
package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/crowdfolio/crowdfolio/internal/etoro"
	"github.com/crowdfolio/crowdfolio/internal/progress"
)

// Fetcher is the subset of the eToro client the collector needs.
type Fetcher interface {
	PublicPortfolio(ctx context.Context, username string) (etoro.Portfolio, error)
	UserTradeStats(ctx context.Context, username string, period etoro.Period) (etoro.TradeStats, error)
}

// CollectedInvestor pairs an investor with their fetched portfolio.
// Portfolio always has a non-nil Positions slice; Err is non-empty when
// the portfolio fetch failed (the investor then counts as 100% cash).
type CollectedInvestor struct {
	Investor  etoro.Investor  `json:"investor"`
	Portfolio etoro.Portfolio `json:"portfolio"`
	Err       string          `json:"error,omitempty"`
}

// Config tunes the collector's pacing. DefaultConfig values suit the
// real API; tests shrink every duration to near zero.
type Config struct {
	// FetchTradeStats enables the per-investor trade stats request.
	FetchTradeStats bool
	// Period is forwarded to the trade stats endpoint.
	Period etoro.Period

	// Circuit breaker: after ConsecutiveFailureLimit failures in a row,
	// sleep BreakerCooldown and reset the streak.
	ConsecutiveFailureLimit int
	BreakerCooldown         time.Duration

	// RateLimitPenalty is slept after an error that indicates 429.
	RateLimitPenalty time.Duration

	// Adaptive delay steps, chosen by running error rate.
	DelayCalm     time.Duration // error rate < 5%, fewer than 100 processed
	DelayNormal   time.Duration // error rate < 10%
	DelayElevated time.Duration // error rate < 20%
	DelayHigh     time.Duration // error rate >= 20%

	// Every CheckpointEvery investors an extra CheckpointPause is
	// inserted regardless of error rate.
	CheckpointEvery int
	CheckpointPause time.Duration

	// Emergency brake: after at least BrakeMinProcessed investors, an
	// error rate above BrakeErrorRate triggers a BrakePause and resets
	// the consecutive-failure streak.
	BrakeMinProcessed int
	BrakeErrorRate    float64
	BrakePause        time.Duration

	// Progress cadence.
	ProgressMinGap time.Duration
	ProgressEvery  int
}

// DefaultConfig returns the pacing used against the real API.
func DefaultConfig() Config {
	return Config{
		FetchTradeStats:         true,
		Period:                  etoro.PeriodCurrYear,
		ConsecutiveFailureLimit: 10,
		BreakerCooldown:         30 * time.Second,
		RateLimitPenalty:        5 * time.Second,
		DelayCalm:               400 * time.Millisecond,
		DelayNormal:             time.Second,
		DelayElevated:           3 * time.Second,
		DelayHigh:               8 * time.Second,
		CheckpointEvery:         50,
		CheckpointPause:         5 * time.Second,
		BrakeMinProcessed:       50,
		BrakeErrorRate:          0.30,
		BrakePause:              60 * time.Second,
		ProgressMinGap:          2 * time.Second,
		ProgressEvery:           25,
	}
}

// Collector fetches portfolios for a list of investors.
type Collector struct {
	fetcher Fetcher
	cfg     Config
	sleep   func(time.Duration) // overridable in tests
}

// New creates a collector.
func New(fetcher Fetcher, cfg Config) *Collector {
	return &Collector{fetcher: fetcher, cfg: cfg, sleep: time.Sleep}
}

// Collect fetches each investor's portfolio in order. It never fails for
// a single investor: failures are recorded on the result and the walk
// continues, slowing down as the error rate rises. Only context
// cancellation aborts the walk early (already-collected results are
// returned with the error).
func (c *Collector) Collect(ctx context.Context, investors []etoro.Investor, report progress.Func) ([]CollectedInvestor, error) {
	results := make([]CollectedInvestor, 0, len(investors))
	throttled := progress.NewThrottled(report, c.cfg.ProgressMinGap, c.cfg.ProgressEvery)

	consecutiveFailures := 0
	errorCount := 0

	for i, inv := range investors {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("collection aborted after %d investors: %w", i, err)
		}

		// Circuit breaker: too many failures in a row means the API is
		// unhappy with us right now; back off before trying again.
		if consecutiveFailures >= c.cfg.ConsecutiveFailureLimit {
			log.Printf("collector: %d consecutive failures, cooling down %s", consecutiveFailures, c.cfg.BreakerCooldown)
			c.sleep(c.cfg.BreakerCooldown)
			consecutiveFailures = 0
		}

		result := c.fetchOne(ctx, inv)
		if result.Err != "" {
			errorCount++
			consecutiveFailures++
			if result.rateLimited {
				c.sleep(c.cfg.RateLimitPenalty)
			}
		} else {
			consecutiveFailures = 0
		}
		results = append(results, result.CollectedInvestor)

		processed := i + 1
		errorRate := float64(errorCount) / float64(processed)

		msg := fmt.Sprintf("portfolios %d/%d (ok %d, errors %d, %.1f%% error rate)",
			processed, len(investors), processed-errorCount, errorCount, errorRate*100)
		pct := float64(processed) / float64(len(investors)) * 100
		if processed == len(investors) {
			throttled.Force(pct, msg)
			break
		}
		throttled.Report(pct, msg)

		c.sleep(c.adaptiveDelay(processed, errorRate))
		if c.cfg.CheckpointEvery > 0 && processed%c.cfg.CheckpointEvery == 0 {
			c.sleep(c.cfg.CheckpointPause)
		}

		// Emergency brake, separate from the circuit breaker: a high
		// error rate over a meaningful sample means continuing at the
		// current pace would only make things worse.
		if processed >= c.cfg.BrakeMinProcessed && errorRate > c.cfg.BrakeErrorRate {
			log.Printf("collector: error rate %.1f%% after %d investors, emergency pause %s",
				errorRate*100, processed, c.cfg.BrakePause)
			c.sleep(c.cfg.BrakePause)
			consecutiveFailures = 0
		}
	}
	return results, nil
}

type fetchResult struct {
	CollectedInvestor
	rateLimited bool
}

func (c *Collector) fetchOne(ctx context.Context, inv etoro.Investor) fetchResult {
	res := fetchResult{CollectedInvestor: CollectedInvestor{Investor: inv, Portfolio: etoro.EmptyPortfolio()}}

	p, err := c.fetcher.PublicPortfolio(ctx, inv.Username)
	if err != nil {
		res.Err = err.Error()
		res.rateLimited = etoro.IsRateLimit(err)
		return res
	}
	res.Portfolio = p

	if c.cfg.FetchTradeStats {
		stats, err := c.fetcher.UserTradeStats(ctx, inv.Username, c.cfg.Period)
		if err != nil {
			// Enrichment only; the portfolio is still good.
			log.Printf("collector: trade stats for %s failed: %v", inv.Username, err)
		} else {
			res.Investor.Trades = stats.Trades
			res.Investor.WinRatio = stats.WinRatio
		}
	}
	return res
}

// adaptiveDelay picks the inter-request delay from the running error
// rate: errors mean we are being rate limited or the API is degraded,
// so we trade speed for completion.
func (c *Collector) adaptiveDelay(processed int, errorRate float64) time.Duration {
	switch {
	case errorRate < 0.05 && processed < 100:
		return c.cfg.DelayCalm
	case errorRate < 0.10:
		return c.cfg.DelayNormal
	case errorRate < 0.20:
		return c.cfg.DelayElevated
	default:
		return c.cfg.DelayHigh
	}
}

// ErrorCount returns how many results carry an error string.
func ErrorCount(results []CollectedInvestor) int {
	n := 0
	for _, r := range results {
		if r.Err != "" {
			n++
		}
	}
	return n
}
