package google

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond stays well below Drive's 10 req/sec/user quota.
const (
	DefaultRequestsPerSecond = 8.0
	DefaultBurst             = 10
)

// RateLimiter is a token bucket with a server-imposed pause.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter. A non-positive rate disables throttling.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return r.limiter.Wait(ctx)
}

// Observe records a rate-limit response carrying Retry-After so later calls
// pause until the server allows them. Without the header the retry delay
// alone spaces the attempts.
func (r *RateLimiter) Observe(err error) {
	if !IsRateLimited(err) {
		return
	}
	wait := time.Duration(RetryAfter(err)) * time.Second
	if wait <= 0 {
		return
	}
	r.mu.Lock()
	r.retryAt = time.Now().Add(wait)
	r.mu.Unlock()
}

// RetryAt returns when the current pause ends.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}

func parseSeconds(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
