package driven

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// ConnectorBuilder creates a Connector from a Source.
// tokens is a NullTokenProvider for connectors that need no authentication.
type ConnectorBuilder func(source domain.Source, tokens TokenProvider, engine extract.Settings) (Connector, error)

// ConnectorFactory creates connectors from source configuration.
// It maintains a registry of connector types and their builders.
type ConnectorFactory interface {
	// Create returns a Connector for the given source.
	// Returns ErrUnsupportedType if the source type is unknown.
	Create(ctx context.Context, source domain.Source, tokens TokenProvider, engine extract.Settings) (Connector, error)

	// Register adds a connector type and its builder.
	// Returns ErrAlreadyExists if the type is already registered.
	Register(ct domain.ConnectorType, builder ConnectorBuilder) error

	// ConnectorType returns the declaration for a registered type.
	ConnectorType(id string) (domain.ConnectorType, bool)

	// SupportedTypes returns all registered connector types, sorted by ID.
	SupportedTypes() []domain.ConnectorType
}

// TokenProviderFactory resolves bearer material for a source.
type TokenProviderFactory interface {
	// Create returns a TokenProvider for source using the declared method.
	Create(ctx context.Context, source domain.Source, method domain.AuthMethod) (TokenProvider, error)
}
