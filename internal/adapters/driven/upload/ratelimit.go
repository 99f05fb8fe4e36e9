package upload

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRetryAfter is the backoff applied to a 429 without a Retry-After header.
const DefaultRetryAfter = 30 * time.Second

// RateLimiter paces uploads with a token bucket and honours server backoff.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter allowing perSecond uploads with a small burst.
// A non-positive rate disables pacing.
func NewRateLimiter(perSecond float64) *RateLimiter {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until an upload may start.
// It also respects any backoff period set by RecordRateLimit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimit sets a backoff period after a 429 response.
func (r *RateLimiter) RecordRateLimit(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	r.retryAt = time.Now().Add(retryAfter)
}
