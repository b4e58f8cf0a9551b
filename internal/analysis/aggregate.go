package analysis

import (
	"log"
	"math"
	"sort"

	"github.com/crowdfolio/crowdfolio/internal/collector"
	"github.com/crowdfolio/crowdfolio/internal/etoro"
)

// Gain values outside this open interval are treated as data glitches
// (liquidated accounts, display artifacts) and excluded from the average
// gain — from the numerator and the denominator. They still appear in
// the gain distribution's outer buckets.
const (
	gainOutlierLow  = -100.0
	gainOutlierHigh = 1000.0
)

// Aggregate computes the full Analysis for one band of investors.
// Metadata and rates enrich holdings by id lookup; missing entries leave
// the display fields empty and never drive the math.
func Aggregate(investors []collector.CollectedInvestor, meta map[int64]etoro.InstrumentMeta, rates map[int64]etoro.InstrumentRate) *Analysis {
	n := len(investors)
	a := &Analysis{BandSize: n}
	if n == 0 {
		a.GainDist = distribute(nil, gainBuckets)
		a.RiskDist = distribute(nil, riskBuckets)
		a.InstrumentsDist = distribute(nil, instrumentBuckets)
		a.CashDist = distribute(nil, cashBuckets)
		return a
	}

	cashValues := make([]float64, 0, n)
	gainValues := make([]float64, 0, n)
	riskValues := make([]float64, 0, n)
	uniqueValues := make([]float64, 0, n)

	type holdingAcc struct {
		holders    int
		allocation float64
	}
	holdings := make(map[int64]*holdingAcc)

	var sumCash, sumUnique, sumRisk, sumTrades, sumWinRatio float64
	var sumGain float64
	gainSamples := 0

	a.Performers = make([]PerformerStats, 0, n)

	for _, ci := range investors {
		cash := CashPercentage(ci.Portfolio)
		unique, perInstrument := instrumentAllocations(ci.Portfolio)

		sumCash += cash
		sumUnique += float64(unique)
		sumRisk += float64(ci.Investor.RiskScore)
		sumTrades += float64(ci.Investor.Trades)
		sumWinRatio += ci.Investor.WinRatio

		if g := ci.Investor.Gain; !math.IsNaN(g) && g > gainOutlierLow && g < gainOutlierHigh {
			sumGain += g
			gainSamples++
		}

		cashValues = append(cashValues, cash)
		gainValues = append(gainValues, ci.Investor.Gain)
		riskValues = append(riskValues, float64(ci.Investor.RiskScore))
		uniqueValues = append(uniqueValues, float64(unique))

		// One holder per investor per instrument, regardless of how many
		// positions they hold in it.
		for id, alloc := range perInstrument {
			acc := holdings[id]
			if acc == nil {
				acc = &holdingAcc{}
				holdings[id] = acc
			}
			acc.holders++
			acc.allocation += alloc
		}

		a.Performers = append(a.Performers, PerformerStats{
			Username:          ci.Investor.Username,
			FullName:          ci.Investor.FullName,
			Gain:              ci.Investor.Gain,
			RiskScore:         ci.Investor.RiskScore,
			Copiers:           ci.Investor.Copiers,
			Trades:            ci.Investor.Trades,
			WinRatio:          ci.Investor.WinRatio,
			CashPct:           cash,
			UniqueInstruments: unique,
			AvatarURL:         ci.Investor.AvatarURL,
			FetchError:        ci.Err,
		})
	}

	fn := float64(n)
	a.AvgCashPct = sumCash / fn
	a.AvgUniqueInstruments = sumUnique / fn
	a.AvgRiskScore = sumRisk / fn
	a.AvgTrades = sumTrades / fn
	a.AvgWinRatio = sumWinRatio / fn
	if gainSamples > 0 {
		a.AvgGain = sumGain / float64(gainSamples)
	}

	a.FearGreedIndex = FearGreedIndex(a.AvgCashPct)
	a.FearGreedLabel = FearGreedLabel(a.FearGreedIndex)

	a.GainDist = distribute(gainValues, gainBuckets)
	a.RiskDist = distribute(riskValues, riskBuckets)
	a.InstrumentsDist = distribute(uniqueValues, instrumentBuckets)
	a.CashDist = distribute(cashValues, cashBuckets)
	for _, check := range []struct {
		d    Distribution
		name string
	}{
		{a.GainDist, "gain"}, {a.RiskDist, "risk"},
		{a.InstrumentsDist, "instruments"}, {a.CashDist, "cash"},
	} {
		if err := checkTotal(check.d, n, check.name); err != nil {
			log.Printf("%v", err)
		}
	}

	a.Holdings = make([]InstrumentHolding, 0, len(holdings))
	for id, acc := range holdings {
		if acc.holders > n {
			// Per-investor dedup above makes this impossible.
			log.Printf("analysis: instrument %d has %d holders in a band of %d", id, acc.holders, n)
			acc.holders = n
		}
		h := InstrumentHolding{
			InstrumentID:    id,
			Holders:         acc.holders,
			TotalAllocation: acc.allocation,
			AvgAllocation:   acc.allocation / float64(acc.holders),
		}
		if m, ok := meta[id]; ok {
			h.Name = m.Name
			h.Symbol = m.Symbol
			h.ImageURL = m.ImageURL
		}
		if r, ok := rates[id]; ok {
			h.PriorDayPct = r.PriorDayPct
			h.WeekPct = r.WeekPct
			h.MonthPct = r.MonthPct
		}
		a.Holdings = append(a.Holdings, h)
	}
	sort.Slice(a.Holdings, func(i, j int) bool {
		if a.Holdings[i].Holders != a.Holdings[j].Holders {
			return a.Holdings[i].Holders > a.Holdings[j].Holders
		}
		if a.Holdings[i].TotalAllocation != a.Holdings[j].TotalAllocation {
			return a.Holdings[i].TotalAllocation > a.Holdings[j].TotalAllocation
		}
		return a.Holdings[i].InstrumentID < a.Holdings[j].InstrumentID
	})

	sort.SliceStable(a.Performers, func(i, j int) bool {
		return a.Performers[i].Copiers > a.Performers[j].Copiers
	})

	return a
}

// CashPercentage is 100 minus the summed invested percentages, floored
// at zero. An investor with no positions (including every failed fetch)
// is by definition 100% cash.
func CashPercentage(p etoro.Portfolio) float64 {
	invested := 0.0
	for _, pos := range p.Positions {
		invested += pos.InvestedPct
	}
	cash := 100 - invested
	if cash < 0 {
		return 0
	}
	return cash
}

// instrumentAllocations returns the distinct instrument count and the
// summed allocation per instrument for one portfolio.
func instrumentAllocations(p etoro.Portfolio) (int, map[int64]float64) {
	perInstrument := make(map[int64]float64, len(p.Positions))
	for _, pos := range p.Positions {
		perInstrument[pos.InstrumentID] += pos.InvestedPct
	}
	return len(perInstrument), perInstrument
}
