package notion

import (
	"errors"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// Status returns the HTTP status behind a Notion API or relay error.
func Status(err error) (int, bool) {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	var se *extract.StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// Classify treats 408, 429 and 5xx as transient.
var Classify = extract.StatusClassifier(Status)

// IsUnauthorized returns true if the integration token was rejected.
func IsUnauthorized(err error) bool {
	code, ok := Status(err)
	return ok && code == http.StatusUnauthorized
}
