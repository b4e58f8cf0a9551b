package analysis

import (
	"fmt"
	"sort"

	"github.com/crowdfolio/crowdfolio/internal/collector"
	"github.com/crowdfolio/crowdfolio/internal/etoro"
	"github.com/crowdfolio/crowdfolio/internal/progress"
)

// DefaultBandSizes are the investor-count prefixes analyzed per run.
var DefaultBandSizes = []int{100, 500, 1000, 1500}

// BandAnalysis pairs a band size with its analysis.
type BandAnalysis struct {
	BandSize int       `json:"bandSize"`
	Analysis *Analysis `json:"analysis"`
}

// BandSizes filters the requested band sizes down to those the collected
// data can serve, sorted ascending. Policy: when the actual collected
// count exceeds every surviving requested band, it is appended as an
// extra "all collected" band, so the widest view is never lost to a
// too-ambitious request list.
func BandSizes(requested []int, total int) []int {
	out := make([]int, 0, len(requested)+1)
	for _, b := range requested {
		if b > 0 && b <= total {
			out = append(out, b)
		}
	}
	sort.Ints(out)
	if total > 0 && (len(out) == 0 || out[len(out)-1] < total) {
		out = append(out, total)
	}
	return out
}

// AnalyzeBands re-aggregates prefixes of the investor list, one analysis
// per band. Investors must already be sorted by copier count descending;
// bands are independent re-aggregations, not incremental deltas. Each
// band owns an equal slice of the progress range.
func AnalyzeBands(investors []collector.CollectedInvestor, meta map[int64]etoro.InstrumentMeta, rates map[int64]etoro.InstrumentRate, bandSizes []int, report progress.Func) []BandAnalysis {
	if report == nil {
		report = progress.Discard
	}
	out := make([]BandAnalysis, 0, len(bandSizes))
	for i, size := range bandSizes {
		if size > len(investors) {
			continue // BandSizes should have filtered this; stay safe
		}
		out = append(out, BandAnalysis{
			BandSize: size,
			Analysis: Aggregate(investors[:size], meta, rates),
		})
		report(float64(i+1)/float64(len(bandSizes))*100,
			fmt.Sprintf("analyzed top %d band (%d/%d)", size, i+1, len(bandSizes)))
	}
	return out
}

// SortByCopiers orders collected investors by copier count descending,
// the canonical band ordering. Sorting is stable so equal-copier
// investors keep their listing order.
func SortByCopiers(investors []collector.CollectedInvestor) {
	sort.SliceStable(investors, func(i, j int) bool {
		return investors[i].Investor.Copiers > investors[j].Investor.Copiers
	})
}
