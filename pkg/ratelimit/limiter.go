package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter throttles outbound requests
type Limiter interface {
	// Allow takes a token if one is available, without blocking
	Allow() bool
	// Wait blocks until a token is available or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter
	Reset()
}

// New returns a bucket allowing perMinute requests per minute, or an
// unlimited limiter when perMinute is zero or negative
func New(perMinute int) Limiter {
	if perMinute <= 0 {
		return Unlimited{}
	}
	return NewTokenBucket(perMinute, time.Minute)
}

// TokenBucket holds up to capacity tokens and refills them continuously,
// capacity tokens per refillPeriod. A full bucket allows a burst of capacity
// requests; after that requests are spaced evenly.
type TokenBucket struct {
	mu           sync.Mutex
	capacity     float64
	tokens       float64
	refillPeriod time.Duration
	lastRefill   time.Time
}

// NewTokenBucket creates a full bucket
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     float64(capacity),
		tokens:       float64(capacity),
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	_, ok := tb.take()
	return ok
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait, ok := tb.take()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// take removes one token. When none is available it reports how long until
// the next one.
func (tb *TokenBucket) take() (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	perToken := tb.refillPeriod / time.Duration(tb.capacity)
	if perToken <= 0 {
		perToken = time.Millisecond
	}

	tb.tokens += float64(now.Sub(tb.lastRefill)) / float64(perToken)
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return 0, true
	}
	return time.Duration((1 - tb.tokens) * float64(perToken)), false
}

// Unlimited never throttles
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
