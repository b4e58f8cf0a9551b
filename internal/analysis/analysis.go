// Package analysis folds collected portfolios into per-instrument and
// per-investor statistics. Everything here is a pure function of its
// inputs: no I/O, no clocks, so one collection snapshot can be
// re-aggregated over any number of investor-count bands.
package analysis

// Analysis is the derived view over one band of investors.
type Analysis struct {
	BandSize int `json:"bandSize"`

	// FearGreedIndex maps average cash into 0 (greed) .. 100 (fear).
	FearGreedIndex float64 `json:"fearGreedIndex"`
	FearGreedLabel string  `json:"fearGreedLabel"`

	AvgCashPct           float64 `json:"avgCashPct"`
	AvgUniqueInstruments float64 `json:"avgUniqueInstruments"`
	AvgGain              float64 `json:"avgGain"`
	AvgRiskScore         float64 `json:"avgRiskScore"`
	AvgTrades            float64 `json:"avgTrades"`
	AvgWinRatio          float64 `json:"avgWinRatio"`

	GainDist        Distribution `json:"gainDistribution"`
	RiskDist        Distribution `json:"riskDistribution"`
	InstrumentsDist Distribution `json:"instrumentCountDistribution"`
	CashDist        Distribution `json:"cashDistribution"`

	// Holdings is sorted by holder count descending, then total
	// allocation descending.
	Holdings []InstrumentHolding `json:"holdings"`

	// Performers is sorted by copier count descending, mirroring the
	// band ordering itself.
	Performers []PerformerStats `json:"performers"`
}

// InstrumentHolding aggregates one instrument across a band. An investor
// holding the instrument through several positions counts as one holder
// whose allocation is the sum of those positions.
type InstrumentHolding struct {
	InstrumentID  int64   `json:"instrumentId"`
	Name          string  `json:"name,omitempty"`
	Symbol        string  `json:"symbol,omitempty"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	Holders       int     `json:"holders"`
	AvgAllocation float64 `json:"avgAllocationPct"`
	TotalAllocation float64 `json:"totalAllocationPct"`
	PriorDayPct   float64 `json:"priorDayPct,omitempty"`
	WeekPct       float64 `json:"weekPct,omitempty"`
	MonthPct      float64 `json:"monthPct,omitempty"`
}

// PerformerStats is one investor's display row within a band.
type PerformerStats struct {
	Username          string  `json:"username"`
	FullName          string  `json:"fullName,omitempty"`
	Gain              float64 `json:"gain"`
	RiskScore         int     `json:"riskScore"`
	Copiers           int     `json:"copiers"`
	Trades            int     `json:"trades"`
	WinRatio          float64 `json:"winRatio"`
	CashPct           float64 `json:"cashPct"`
	UniqueInstruments int     `json:"uniqueInstruments"`
	AvatarURL         string  `json:"avatarUrl,omitempty"`
	FetchError        string  `json:"fetchError,omitempty"`
}

// Distribution is a fixed-bucket histogram. Bucket counts always sum to
// the band size: every investor lands in exactly one bucket.
type Distribution struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket is one histogram bar.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Total returns the sum of all bucket counts.
func (d Distribution) Total() int {
	n := 0
	for _, b := range d.Buckets {
		n += b.Count
	}
	return n
}
