package job

import (
	"math"
	"time"
)

// BackoffStrategy computes how long a job stays behind the retry gate after
// a failure. Strategies are stateless and safe for concurrent use.
type BackoffStrategy interface {
	// Delay returns the gate duration given the number of attempts the job
	// has accumulated so far.
	Delay(attempts int) time.Duration
}

// ExponentialBackoff doubles the delay with each attempt:
// Initial * 2^(attempts-1), capped at Max.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (e ExponentialBackoff) Delay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempts-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// DefaultBackoff is the engine default: 30s doubling up to 1h.
func DefaultBackoff() BackoffStrategy {
	return ExponentialBackoff{Initial: 30 * time.Second, Max: time.Hour}
}
