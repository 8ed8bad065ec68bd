package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-extract/internal/logger"
)

const (
	// GitHubRateLimit is the authenticated primary limit per hour.
	GitHubRateLimit = 5000

	// ProactiveRate is the default throttle, about 4320 requests per hour.
	ProactiveRate = 1.2

	// MinBuffer is the remaining quota below which calls wait for reset.
	MinBuffer = 100

	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"
	HeaderRetryAfter    = "Retry-After"
)

// Quota is the last primary rate limit state reported by GitHub.
type Quota struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter spaces requests with a token bucket and pauses when GitHub
// reports the primary quota nearly spent or asks for a secondary backoff.
type RateLimiter struct {
	bucket    *rate.Limiter
	minBuffer int
	now       func() time.Time

	mu      sync.Mutex
	quota   Quota
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter allowing perSecond requests.
// Zero or less disables proactive throttling.
func NewRateLimiter(perSecond float64) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimiter{
		bucket:    rate.NewLimiter(limit, 1),
		minBuffer: MinBuffer,
		now:       time.Now,
		quota:     Quota{Limit: GitHubRateLimit, Remaining: GitHubRateLimit},
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}
	until, reason := r.pauseUntil()
	if until.IsZero() {
		return nil
	}

	wait := until.Sub(r.now())
	logger.Debug("github: %s, pausing %v", reason, wait.Round(time.Second))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pauseUntil returns the latest instant a pending pause ends, or zero.
func (r *RateLimiter) pauseUntil() (time.Time, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()

	var until time.Time
	var reason string
	if r.quota.Remaining < r.minBuffer && now.Before(r.quota.ResetAt) {
		until = r.quota.ResetAt
		reason = strconv.Itoa(r.quota.Remaining) + " requests left"
	}
	if now.Before(r.retryAt) && r.retryAt.After(until) {
		until = r.retryAt
		reason = "secondary rate limit"
	}
	return until, reason
}

// UpdateFromResponse records quota headers and any Retry-After request.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, err := strconv.Atoi(resp.Header.Get(HeaderRateRemaining)); err == nil {
		r.quota.Remaining = v
	}
	if v, err := strconv.Atoi(resp.Header.Get(HeaderRateLimit)); err == nil {
		r.quota.Limit = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get(HeaderRateReset), 10, 64); err == nil {
		r.quota.ResetAt = time.Unix(v, 0)
	}
	if v, err := strconv.Atoi(resp.Header.Get(HeaderRetryAfter)); err == nil && v > 0 {
		r.retryAt = r.now().Add(time.Duration(v) * time.Second)
	}
}

// Quota returns the last reported primary quota.
func (r *RateLimiter) Quota() Quota {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quota
}

// RetryAt returns when a secondary rate limit pause ends, or zero.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}
