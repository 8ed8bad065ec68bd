package dropbox

import (
	"errors"
	"net/http"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"

	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// asError finds an SDK error of type T in err's chain. The SDK returns its
// errors by value.
func asError[T error](err error) (T, bool) {
	var v T
	ok := errors.As(err, &v)
	return v, ok
}

// Status returns the HTTP status behind an SDK error.
func Status(err error) (int, bool) {
	if _, ok := asError[auth.AuthAPIError](err); ok {
		return http.StatusUnauthorized, true
	}
	if _, ok := asError[auth.AccessAPIError](err); ok {
		return http.StatusForbidden, true
	}
	if _, ok := asError[auth.RateLimitAPIError](err); ok {
		return http.StatusTooManyRequests, true
	}
	if e, ok := asError[auth.ServerError](err); ok {
		if e.StatusCode >= 500 {
			return e.StatusCode, true
		}
		return http.StatusInternalServerError, true
	}
	if _, ok := asError[auth.BadRequest](err); ok {
		return http.StatusBadRequest, true
	}
	if e, ok := asError[dropbox.SDKInternalError](err); ok {
		return e.StatusCode, true
	}
	return 0, false
}

// Classify treats rate limits and 5xx responses as transient. Endpoint
// errors such as path/not_found arrive as 409 and are permanent.
var Classify = extract.StatusClassifier(Status)

// IsUnauthorized returns true if the token was rejected.
func IsUnauthorized(err error) bool {
	code, ok := Status(err)
	return ok && code == http.StatusUnauthorized
}

// RetryAfter returns the wait Dropbox asked for on a 429, or zero.
func RetryAfter(err error) time.Duration {
	e, ok := asError[auth.RateLimitAPIError](err)
	if !ok || e.RateLimitError == nil {
		return 0
	}
	return time.Duration(e.RateLimitError.RetryAfter) * time.Second
}
