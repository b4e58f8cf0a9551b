package analysis

import (
	"math"
	"testing"
)

func TestFearGreedIndexBreakpoints(t *testing.T) {
	tests := []struct {
		name    string
		avgCash float64
		want    float64
	}{
		{"at greed floor", 5, 0},
		{"below greed floor", 0, 0},
		{"neutral mark", 15, 50},
		{"at fear ceiling", 35, 100},
		{"above fear ceiling", 80, 100},
		{"midway greed to neutral", 10, 25},
		{"midway neutral to fear", 25, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FearGreedIndex(tt.avgCash); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FearGreedIndex(%v) = %v, want %v", tt.avgCash, got, tt.want)
			}
		})
	}
}

func TestFearGreedIndexMonotonic(t *testing.T) {
	// Higher cash can never mean less fear.
	prev := FearGreedIndex(0)
	for cash := 0.5; cash <= 100; cash += 0.5 {
		cur := FearGreedIndex(cash)
		if cur < prev {
			t.Fatalf("index decreased: f(%v) = %v < %v", cash, cur, prev)
		}
		prev = cur
	}
}

func TestFearGreedIndexBounds(t *testing.T) {
	for _, cash := range []float64{-10, 0, 3, 17, 42, 100, 250} {
		idx := FearGreedIndex(cash)
		if idx < 0 || idx > 100 {
			t.Errorf("FearGreedIndex(%v) = %v out of [0, 100]", cash, idx)
		}
	}
}

func TestFearGreedLabel(t *testing.T) {
	tests := []struct {
		index float64
		want  string
	}{
		{0, "Extreme Greed"},
		{19.9, "Extreme Greed"},
		{20, "Greed"},
		{40, "Neutral"},
		{60, "Fear"},
		{80, "Extreme Fear"},
		{100, "Extreme Fear"},
	}
	for _, tt := range tests {
		if got := FearGreedLabel(tt.index); got != tt.want {
			t.Errorf("FearGreedLabel(%v) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
