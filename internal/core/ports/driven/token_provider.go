package driven

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// TokenProvider supplies bearer material for authenticated API calls.
// Acquisition and rotation happen elsewhere; connectors call GetToken at the
// start of each pass so rotated material is picked up between passes.
type TokenProvider interface {
	// GetToken returns the current bearer token.
	// Returns empty string for no-auth connectors.
	GetToken(ctx context.Context) (string, error)

	// AuthMethod returns the authentication method (oauth, pat, none).
	AuthMethod() domain.AuthMethod

	// IsAuthenticated returns true if bearer material is available.
	// Always true for no-auth connectors (NullTokenProvider).
	IsAuthenticated() bool
}
