package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Diagnostics exposes the debugging operations around a connector.
type Diagnostics interface {
	// CheckConnection verifies every prerequisite of a source type.
	// Returns nil when ready, or an error naming the missing prerequisite
	// (ErrUnsupportedType, ErrMissingConfig, ErrAuthRequired, or the
	// connector's validation failure).
	CheckConnection(ctx context.Context, sourceType string) error

	// RunSync drives one pass of a source type into a sink. The report is
	// always returned; the error is the first fatal error with its cause intact.
	RunSync(ctx context.Context, sourceType string, opts SyncOptions) (*SyncReport, error)

	// SourceTypes lists the registered source types.
	SourceTypes() []domain.ConnectorType
}

// SyncOptions controls a diagnostic sync run.
type SyncOptions struct {
	// Limit stops the pass after this many entities. Zero means no limit.
	Limit int

	// Sink receives the entities. Nil discards them.
	Sink driven.EntitySink
}

// SyncReport summarises a sync run.
type SyncReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// SourceType is the connector type that was synced.
	SourceType string

	// Entities is the number of entities consumed.
	Entities int

	// Files is the number of file entities among them.
	Files int

	// Limited is true when the run stopped because Limit was reached.
	Limited bool

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took.
func (r *SyncReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
