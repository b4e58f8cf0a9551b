package analysis

import "fmt"

// A bucketRange covers values up to Hi (exclusive). Buckets in a set are
// contiguous, so each one starts where the previous ended; the last
// bucket absorbs everything at or above its predecessor's bound so that
// boundary values (e.g. exactly 100% cash) are never dropped.
type bucketRange struct {
	Label string
	Hi    float64
}

const posInf = 1e18

// Cash percentage buckets. Cash is clamped to [0, 100] upstream.
var cashBuckets = []bucketRange{
	{"< 1%", 1},
	{"1–5%", 5},
	{"5–10%", 10},
	{"10–25%", 25},
	{"25–50%", 50},
	{"50–75%", 75},
	{"75–100%", posInf},
}

// Gain buckets (percent).
var gainBuckets = []bucketRange{
	{"< -25%", -25},
	{"-25 – -10%", -10},
	{"-10 – 0%", 0},
	{"0 – 10%", 10},
	{"10 – 25%", 25},
	{"25 – 50%", 50},
	{"> 50%", posInf},
}

// Risk score buckets (scores are integers 1..10).
var riskBuckets = []bucketRange{
	{"1–2", 3},
	{"3–4", 5},
	{"5–6", 7},
	{"7–8", 9},
	{"9–10", posInf},
}

// Unique-instrument count buckets.
var instrumentBuckets = []bucketRange{
	{"0", 1},
	{"1–5", 6},
	{"6–10", 11},
	{"11–20", 21},
	{"21–50", 51},
	{"> 50", posInf},
}

// distribute buckets every value into exactly one bucket, preserving the
// total invariant even for out-of-range input.
func distribute(values []float64, ranges []bucketRange) Distribution {
	d := Distribution{Buckets: make([]Bucket, len(ranges))}
	for i, r := range ranges {
		d.Buckets[i].Label = r.Label
	}
	for _, v := range values {
		idx := len(ranges) - 1
		for i, r := range ranges {
			if v < r.Hi {
				idx = i
				break
			}
		}
		d.Buckets[idx].Count++
	}
	return d
}

// checkTotal verifies the distribution's total invariant; callers treat
// a violation as a bug and log it.
func checkTotal(d Distribution, want int, name string) error {
	if got := d.Total(); got != want {
		return fmt.Errorf("analysis: %s distribution total %d, want %d", name, got, want)
	}
	return nil
}
