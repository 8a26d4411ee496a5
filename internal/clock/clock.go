// Package clock abstracts the current time so scheduling comparisons are
// deterministic under test. All instants are UTC.
package clock

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the wall clock, truncated to UTC.
func System() Clock { return systemClock{} }

// Fixed is a test clock pinned to a settable instant.
type Fixed struct {
	Current time.Time
}

// NewFixed pins the clock to t (normalized to UTC).
func NewFixed(t time.Time) *Fixed {
	return &Fixed{Current: t.UTC()}
}

func (f *Fixed) Now() time.Time { return f.Current }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.Current = f.Current.Add(d) }
