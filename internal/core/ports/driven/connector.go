package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// Connector produces the entities of one configured source.
// Each connector type (github, google-drive, dropbox, notion, filesystem) implements this interface.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks if the connector is properly configured and authenticated.
	// For API connectors, this makes a lightweight authenticated call.
	// Returns nil if ready to sync, error describing the problem otherwise.
	Validate(ctx context.Context) error

	// Entities returns one lazy pass over the source. Entities arrive in
	// parent-before-child order; an error is always the final element.
	// Breaking out of the range stops all further fetches.
	Entities(ctx context.Context) iter.Seq2[domain.Entity, error]

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsHierarchy indicates the source has nested structure
	// and entities carry non-empty breadcrumbs.
	SupportsHierarchy bool

	// SupportsBinary indicates the connector emits file entities.
	SupportsBinary bool

	// RequiresAuth indicates the connector needs bearer material.
	RequiresAuth bool

	// SupportsValidation indicates Validate() performs a real API call.
	SupportsValidation bool

	// SupportsRateLimiting indicates the connector throttles itself
	// ahead of the upstream limit.
	SupportsRateLimiting bool

	// SupportsPagination indicates the connector pages through list APIs.
	SupportsPagination bool
}
