package analysis

// Fear/greed breakpoints. The index is a piecewise-linear, monotonically
// non-decreasing function of the band's average cash percentage: popular
// investors sitting on cash signals fear, fully invested signals greed.
//
//	avg cash <=  5%  -> index 0   (extreme greed)
//	avg cash  = 15%  -> index 50  (neutral)
//	avg cash >= 35%  -> index 100 (extreme fear)
const (
	cashGreedFloor  = 5.0  // at or below: bottom of the range
	cashNeutralMark = 15.0 // midpoint of the range
	cashFearCeiling = 35.0 // at or above: top of the range

	fearGreedMin     = 0.0
	fearGreedNeutral = 50.0
	fearGreedMax     = 100.0
)

// FearGreedIndex maps average cash percentage into [0, 100].
func FearGreedIndex(avgCashPct float64) float64 {
	switch {
	case avgCashPct <= cashGreedFloor:
		return fearGreedMin
	case avgCashPct >= cashFearCeiling:
		return fearGreedMax
	case avgCashPct <= cashNeutralMark:
		// Interpolate greed floor -> neutral.
		return fearGreedMin + (fearGreedNeutral-fearGreedMin)*
			(avgCashPct-cashGreedFloor)/(cashNeutralMark-cashGreedFloor)
	default:
		// Interpolate neutral -> fear ceiling.
		return fearGreedNeutral + (fearGreedMax-fearGreedNeutral)*
			(avgCashPct-cashNeutralMark)/(cashFearCeiling-cashNeutralMark)
	}
}

// FearGreedLabel names the index value for display.
func FearGreedLabel(index float64) string {
	switch {
	case index < 20:
		return "Extreme Greed"
	case index < 40:
		return "Greed"
	case index < 60:
		return "Neutral"
	case index < 80:
		return "Fear"
	default:
		return "Extreme Fear"
	}
}
