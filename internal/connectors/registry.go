package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure Registry implements the ConnectorFactory interface.
var _ driven.ConnectorFactory = (*Registry)(nil)

type registration struct {
	connectorType domain.ConnectorType
	builder       driven.ConnectorBuilder
}

// Registry maps source types to their declaration and builder.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]registration),
	}
}

// Register adds a connector type. The type ID must be unique.
func (r *Registry) Register(ct domain.ConnectorType, builder driven.ConnectorBuilder) error {
	if ct.ID == "" || builder == nil {
		return fmt.Errorf("%w: connector type needs an ID and a builder", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[ct.ID]; exists {
		return fmt.Errorf("connector %s: %w", ct.ID, domain.ErrAlreadyExists)
	}
	if ct.AuthMethod == "" {
		ct.AuthMethod = domain.AuthMethodNone
	}
	r.entries[ct.ID] = registration{connectorType: ct, builder: builder}
	return nil
}

// Create builds a connector for source.
func (r *Registry) Create(
	_ context.Context,
	source domain.Source,
	tokens driven.TokenProvider,
	engine extract.Settings,
) (driven.Connector, error) {
	r.mu.RLock()
	entry, ok := r.entries[source.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, source.Type)
	}
	return entry.builder(source, tokens, engine)
}

// ConnectorType returns the declaration for a registered type.
func (r *Registry) ConnectorType(id string) (domain.ConnectorType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry.connectorType, ok
}

// SupportedTypes returns all registered connector types sorted by ID.
func (r *Registry) SupportedTypes() []domain.ConnectorType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]domain.ConnectorType, 0, len(r.entries))
	for _, entry := range r.entries {
		types = append(types, entry.connectorType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types
}
