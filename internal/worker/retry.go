package worker

import (
	"math"
	"time"
)

// RetryPolicy spaces out report task reruns with exponential backoff.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Exhausted reports whether the given attempt (1-based) is past the retry
// budget, meaning the task should be failed instead of rescheduled.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.MaxRetries
}

// NextDelay computes the wait before the given attempt (1-based). Unset
// fields fall back to one-second doubling; MaxDelay caps the result.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	initial := r.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(initial) * math.Pow(factor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		return r.MaxDelay
	}
	if d <= 0 {
		return time.Second
	}
	return d
}
