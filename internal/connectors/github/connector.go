package github

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// TypeID is the source type identifier.
const TypeID = "github"

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector produces entities from GitHub repositories.
type Connector struct {
	sourceID string
	config   *Config
	client   *Client
	relay    *extract.Relay
	metrics  *extract.Metrics
	mu       sync.Mutex
	closed   bool
}

// New creates a new GitHub connector.
func New(sourceID string, cfg *Config, tokens driven.TokenProvider, engine extract.Settings) *Connector {
	client := NewClient(tokens, cfg, engine.Policy(Classify))
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		client:   client,
		relay:    engine.NewRelay(client.OpenBlob, Classify),
		metrics:  engine.Metrics,
	}
}

// Build implements driven.ConnectorBuilder.
func Build(source domain.Source, tokens driven.TokenProvider, engine extract.Settings) (driven.Connector, error) {
	cfg, err := ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return New(source.ID, cfg, tokens, engine), nil
}

// ConnectorType declares the GitHub source type.
func ConnectorType() domain.ConnectorType {
	return domain.ConnectorType{
		ID:          TypeID,
		Name:        "GitHub",
		Description: "Repositories, issues, pull requests and files from GitHub",
		AuthMethod:  domain.AuthMethodPAT,
		ConfigKeys: []domain.ConfigKey{
			{Key: "repos", Label: "Repositories", Description: "owner/name list, default all accessible"},
			{Key: "content_types", Label: "Content Types", Description: "issues, prs, files", Default: "issues,prs,files"},
			{Key: "file_patterns", Label: "File Patterns", Description: "Glob patterns (e.g., *.go,*.md)"},
			{Key: "base_url", Label: "API URL", Description: "GitHub Enterprise API root"},
		},
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return TypeID
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsHierarchy:    true,
		SupportsBinary:       true,
		RequiresAuth:         true,
		SupportsValidation:   true,
		SupportsRateLimiting: true,
		SupportsPagination:   true,
	}
}

// Validate checks the token by fetching the authenticated user.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	if err := c.client.Connect(ctx); err != nil {
		return err
	}
	if _, err := c.client.CurrentUser(ctx); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}
	return nil
}

// Entities returns one pass over the configured repositories.
func (c *Connector) Entities(ctx context.Context) iter.Seq2[domain.Entity, error] {
	return func(yield func(domain.Entity, error) bool) {
		if c.isClosed() {
			yield(nil, domain.ErrConnectorClosed)
			return
		}
		if err := c.client.Connect(ctx); err != nil {
			yield(nil, err)
			return
		}

		o := &extract.Orchestrator{
			SourceID: c.sourceID,
			Relay:    c.relay,
			Metrics:  c.metrics,
			Producers: []extract.Producer{
				{Name: "repositories", Run: c.produceRepos},
			},
		}
		for e, err := range o.Produce(ctx) {
			if !yield(e, err) {
				return
			}
		}
	}
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// pageOf adapts a page-numbered list call to an extract.Page.
func pageOf[T any](items []T, next int, err error) (extract.Page[T, int], error) {
	if err != nil {
		return extract.Page[T, int]{}, err
	}
	return extract.Page[T, int]{Items: items, Next: next, HasNext: next != 0}, nil
}
