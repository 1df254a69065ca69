package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// BackoffStrategy maps a retry attempt (1 for the first retry) to a pause
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff multiplies the pause by Multiplier on every attempt,
// caps it at MaxDelay and then spreads it by up to ±JitterFactor of itself
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff starts at one second and doubles up to 30s
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 || eb.BaseDelay <= 0 {
		return 0
	}

	growth := eb.Multiplier
	if growth < 1 {
		growth = 2
	}

	d := float64(eb.BaseDelay)
	limit := float64(eb.MaxDelay)
	for i := 1; i < attempt; i++ {
		d *= growth
		if limit > 0 && d >= limit {
			break
		}
	}
	if limit > 0 && d > limit {
		d = limit
	}

	if eb.JitterFactor > 0 {
		d *= 1 + eb.JitterFactor*(2*rand.Float64()-1)
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// ConstantBackoff pauses for the same Delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return cb.Delay
}

// Wait sleeps for delay, returning early with ctx.Err() on cancellation
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
