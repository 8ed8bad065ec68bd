package driven

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// EntitySink consumes produced entities. File entities arrive with a
// content stream the sink may drain or ignore.
type EntitySink interface {
	// Consume handles one entity. Returning an error stops the pass.
	Consume(ctx context.Context, e domain.Entity) error

	// Close flushes buffered output.
	Close() error
}
