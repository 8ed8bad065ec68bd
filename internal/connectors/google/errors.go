package google

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// Reasons Google reports on 403 when a quota, not a permission, was hit.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"backendError":          true,
}

// Status returns the HTTP status carried by a googleapi or relay error.
func Status(err error) (int, bool) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code, true
	}
	var serr *extract.StatusError
	if errors.As(err, &serr) {
		return serr.StatusCode, true
	}
	return 0, false
}

// Classify treats 408, 429 and 5xx as transient. A 403 is transient only
// when Google flags it as a rate limit.
func Classify(err error) extract.Class {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusForbidden && isRateLimitReason(gerr) {
		return extract.ClassTransient
	}
	return extract.StatusClassifier(Status)(err)
}

func isRateLimitReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	code, ok := Status(err)
	return ok && code == http.StatusUnauthorized
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	code, ok := Status(err)
	return ok && code == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	code, ok := Status(err)
	if !ok {
		return false
	}
	if code == http.StatusTooManyRequests {
		return true
	}
	var gerr *googleapi.Error
	return code == http.StatusForbidden && errors.As(err, &gerr) && isRateLimitReason(gerr)
}

// RetryAfter returns the server-requested wait in seconds, or zero.
func RetryAfter(err error) int {
	var serr *extract.StatusError
	if errors.As(err, &serr) {
		return int(serr.RetryAfter.Seconds())
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Header != nil {
		return parseSeconds(gerr.Header.Get("Retry-After"))
	}
	return 0
}
