package extract

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// Default retry parameters.
const (
	DefaultAttempts   = 3
	DefaultMultiplier = 1.0
	DefaultUnit       = time.Second
	DefaultFloor      = 2 * DefaultUnit
	DefaultCeiling    = 10 * DefaultUnit
)

// Policy bounds the retries of one logical fetch.
//
// The delay before retry n (1-based) is
// clamp(Multiplier * 2^(n-1) * Unit, Floor, Ceiling).
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts   int
	Multiplier float64
	Unit       time.Duration
	Floor      time.Duration
	Ceiling    time.Duration

	// AttemptTimeout bounds each attempt. Zero means no per-attempt bound.
	// An attempt that times out is classified transient.
	AttemptTimeout time.Duration

	// Classifier decides which failures are retried. Nil means DefaultClassifier.
	Classifier Classifier

	// Timer replaces the wall-clock timer between attempts. Nil uses time.Timer.
	Timer backoff.Timer

	// Metrics receives attempt and retry counts. Nil disables metrics.
	Metrics *Metrics
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   DefaultAttempts,
		Multiplier: DefaultMultiplier,
		Unit:       DefaultUnit,
		Floor:      DefaultFloor,
		Ceiling:    DefaultCeiling,
	}
}

// normalized fills zero fields from the defaults.
func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	if p.Unit <= 0 {
		p.Unit = d.Unit
	}
	if p.Floor < 0 {
		p.Floor = 0
	}
	if p.Ceiling <= 0 {
		p.Ceiling = d.Ceiling
	}
	if p.Floor > p.Ceiling {
		p.Floor = p.Ceiling
	}
	if p.Classifier == nil {
		p.Classifier = DefaultClassifier
	}
	return p
}

// WithClassifier returns a copy of p using c.
func (p Policy) WithClassifier(c Classifier) Policy {
	p.Classifier = c
	return p
}

// Delay returns the wait before retry n. It depends only on n and the policy.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	// 2^62 already exceeds any duration; cap the exponent to keep the float finite.
	exp := n - 1
	if exp > 62 {
		exp = 62
	}
	raw := p.Multiplier * math.Ldexp(float64(p.Unit), exp)
	switch {
	case raw >= float64(p.Ceiling):
		return p.Ceiling
	case raw <= float64(p.Floor):
		return p.Floor
	default:
		return time.Duration(raw)
	}
}

// curve adapts Policy.Delay to backoff.BackOff.
type curve struct {
	p Policy
	n int
}

func (c *curve) NextBackOff() time.Duration {
	c.n++
	return c.p.Delay(c.n)
}

func (c *curve) Reset() { c.n = 0 }

// Do runs fn under the policy, retrying transient failures.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Fetch(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Fetch runs fn until it succeeds, fails permanently, or the policy's
// attempts are spent. On exhaustion the final attempt's error is returned
// unchanged.
func Fetch[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var result T
	attempt := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		p.Metrics.attempt()

		v, timedOut, err := once(ctx, p.AttemptTimeout, fn)
		if err == nil {
			result = v
			return nil
		}
		if attempt >= p.Attempts || (!timedOut && p.Classifier(err) == ClassPermanent) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		p.Metrics.retry()
		logger.Debug("attempt %d/%d failed, retrying in %v: %v", attempt, p.Attempts, next, err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&curve{p: p}, uint64(p.Attempts-1)), ctx)
	if err := backoff.RetryNotifyWithTimer(op, b, notify, p.Timer); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// once runs a single attempt, bounded by timeout when set. timedOut reports
// that the attempt's own deadline fired while ctx was still live.
func once[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (v T, timedOut bool, err error) {
	if timeout <= 0 {
		v, err = fn(ctx)
		return v, false, err
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err = fn(attemptCtx)
	timedOut = err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
	return v, timedOut, err
}
