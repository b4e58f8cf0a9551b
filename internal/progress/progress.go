// Package progress defines the progress-reporting callback shared by the
// long-running collection and analysis stages. Reporting is best-effort
// and synchronous; the caller's callback must not block.
package progress

import "time"

// Func receives progress updates. percent is 0..100 across the whole
// operation; msg is a human-readable status line.
type Func func(percent float64, msg string)

// Discard is a no-op progress callback.
func Discard(float64, string) {}

// Slice maps a sub-operation's 0..100 progress into the [lo, hi] range
// of the parent operation.
func Slice(fn Func, lo, hi float64) Func {
	if fn == nil {
		return Discard
	}
	return func(pct float64, msg string) {
		fn(lo+(hi-lo)*pct/100, msg)
	}
}

// Throttled limits how often updates reach the wrapped callback: one is
// let through when minGap has elapsed since the last delivery, on every
// nth call, or when forced (the terminal update must always use Force).
type Throttled struct {
	fn     Func
	minGap time.Duration
	every  int

	calls int
	last  time.Time
}

// NewThrottled wraps fn with cadence limiting.
func NewThrottled(fn Func, minGap time.Duration, every int) *Throttled {
	if fn == nil {
		fn = Discard
	}
	if every <= 0 {
		every = 1
	}
	return &Throttled{fn: fn, minGap: minGap, every: every}
}

// Report delivers the update when the cadence allows it.
func (t *Throttled) Report(pct float64, msg string) {
	t.calls++
	now := time.Now()
	if t.calls%t.every == 0 || now.Sub(t.last) >= t.minGap {
		t.last = now
		t.fn(pct, msg)
	}
}

// Force delivers the update unconditionally.
func (t *Throttled) Force(pct float64, msg string) {
	t.last = time.Now()
	t.fn(pct, msg)
}
