package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"
)

// Class is the retry classification of a failure.
type Class int

const (
	// ClassPermanent failures will not change outcome on retry.
	ClassPermanent Class = iota
	// ClassTransient failures are expected to succeed on retry.
	ClassTransient
)

// String returns the class name.
func (c Class) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "permanent"
}

// Classifier maps an error onto a retry class.
type Classifier func(err error) Class

// markedError forces a classification regardless of the wrapped error.
type markedError struct {
	err   error
	class Class
}

func (e *markedError) Error() string { return e.err.Error() }
func (e *markedError) Unwrap() error { return e.err }

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, class: ClassTransient}
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, class: ClassPermanent}
}

// StatusError is a non-2xx HTTP response from a raw request.
type StatusError struct {
	StatusCode int
	URL        string
	// RetryAfter is the server-requested delay, zero when absent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d %s (URL: %s)", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// NewStatusError builds a StatusError from a response.
func NewStatusError(resp *http.Response) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode}
	if resp.Request != nil && resp.Request.URL != nil {
		se.URL = resp.Request.URL.Redacted()
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			se.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return se
}

// IsTransientStatus reports whether an HTTP status signals rate limiting
// or temporary unavailability.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DefaultClassifier handles explicit marks, context errors, HTTP status
// errors and network-level failures. Anything else is permanent.
func DefaultClassifier(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	var marked *markedError
	if errors.As(err, &marked) {
		return marked.class
	}

	if errors.Is(err, context.Canceled) {
		return ClassPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var se *StatusError
	if errors.As(err, &se) {
		if IsTransientStatus(se.StatusCode) {
			return ClassTransient
		}
		return ClassPermanent
	}

	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}

	return ClassPermanent
}

// StatusClassifier builds a classifier for SDK errors that expose an HTTP
// status code. status returns ok=false when err carries no status, in which
// case DefaultClassifier decides.
func StatusClassifier(status func(err error) (code int, ok bool)) Classifier {
	return func(err error) Class {
		var marked *markedError
		if errors.As(err, &marked) {
			return marked.class
		}
		if code, ok := status(err); ok {
			if IsTransientStatus(code) {
				return ClassTransient
			}
			return ClassPermanent
		}
		return DefaultClassifier(err)
	}
}

// IsTransient reports whether err is classified transient by the default rules.
func IsTransient(err error) bool {
	return DefaultClassifier(err) == ClassTransient
}
