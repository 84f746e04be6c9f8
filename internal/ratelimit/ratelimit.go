// Package ratelimit paces outbound provider calls with golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// Limiter paces calls to one upstream provider.
type Limiter struct {
	name    string
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerSecond with the given burst.
// A non-positive rate disables pacing.
func New(name string, requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(requestsPerSecond)))
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		name:    name,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Unlimited returns a limiter that never blocks.
func Unlimited(name string) *Limiter {
	return New(name, 0, 1)
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter %s: %w", l.name, err)
	}
	return nil
}

// Allow reports whether a call may happen now without waiting.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}

// Name returns the provider this limiter paces.
func (l *Limiter) Name() string {
	return l.name
}
