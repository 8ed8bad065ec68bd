package github

import (
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// GitHub-specific errors.
var (
	// ErrConfigInvalidContentType indicates an invalid content type was specified.
	ErrConfigInvalidContentType = errors.New("github: invalid content type")

	// ErrConfigInvalidRepo indicates a repos entry that is not owner/name.
	ErrConfigInvalidRepo = errors.New("github: repos entries must be owner/name")

	// ErrConfigInvalidRate indicates requests_per_second is not a number.
	ErrConfigInvalidRate = errors.New("github: requests_per_second must be a number")
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
	Err       error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Is reports domain.ErrRateLimited as a match.
func (e *RateLimitError) Is(target error) bool { return target == domain.ErrRateLimited }

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

func (e *APIError) Unwrap() error { return e.Err }

// Classify maps GitHub failures onto retry classes. Rate limiting is
// transient; other API errors follow their status code.
func Classify(err error) extract.Class {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return extract.ClassTransient
	}
	return statusClassifier(err)
}

var statusClassifier = extract.StatusClassifier(func(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
})

// wrapError converts go-github errors to our error types.
func wrapError(err error, operation string, limiter *RateLimiter) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateLimitErr) || errors.As(err, &abuseErr) {
		q := limiter.Quota()
		resetAt := q.ResetAt
		if retryAt := limiter.RetryAt(); retryAt.After(resetAt) {
			resetAt = retryAt
		}
		return &RateLimitError{
			ResetAt:   resetAt,
			Remaining: q.Remaining,
			Limit:     q.Limit,
			Err:       err,
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			Err:        err,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}
