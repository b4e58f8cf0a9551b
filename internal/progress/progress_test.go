package progress

import (
	"testing"
	"time"
)

func TestSlice(t *testing.T) {
	var got []float64
	fn := Slice(func(pct float64, _ string) { got = append(got, pct) }, 10, 60)

	fn(0, "")
	fn(50, "")
	fn(100, "")

	want := []float64{10, 35, 60}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("slice(%d) = %v, want %v", i, got[i], w)
		}
	}
}

func TestSliceNilFunc(t *testing.T) {
	fn := Slice(nil, 0, 100)
	fn(50, "must not panic")
}

func TestThrottledEveryNth(t *testing.T) {
	var count int
	// Large minGap so only the every-nth rule fires.
	th := NewThrottled(func(float64, string) { count++ }, time.Hour, 5)
	th.last = time.Now()

	for i := 0; i < 20; i++ {
		th.Report(float64(i), "")
	}
	if count != 4 {
		t.Errorf("delivered %d updates over 20 calls with every=5, want 4", count)
	}
}

func TestThrottledMinGap(t *testing.T) {
	var count int
	// Huge every so only the time rule fires; zero gap lets all through.
	th := NewThrottled(func(float64, string) { count++ }, 0, 1<<30)

	for i := 0; i < 3; i++ {
		th.Report(float64(i), "")
	}
	if count != 3 {
		t.Errorf("delivered %d updates with zero min gap, want 3", count)
	}
}

func TestThrottledForceAlwaysDelivers(t *testing.T) {
	var count int
	th := NewThrottled(func(float64, string) { count++ }, time.Hour, 1<<30)
	th.last = time.Now()

	th.Report(10, "")
	th.Force(100, "done")
	if count != 1 {
		t.Errorf("Force delivered %d updates, want exactly the forced one", count)
	}
}

func TestNewThrottledNilFunc(t *testing.T) {
	th := NewThrottled(nil, 0, 0)
	th.Report(1, "must not panic")
	th.Force(2, "must not panic")
}
