package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// Ensure DiagnosticsService implements the interface.
var _ driving.Diagnostics = (*DiagnosticsService)(nil)

// DiagnosticsService builds connectors from configuration and runs the
// check and sync diagnostics against them.
type DiagnosticsService struct {
	factory driven.ConnectorFactory
	tokens  driven.TokenProviderFactory
	config  driven.ConfigStore
	metrics *extract.Metrics
	now     func() time.Time
}

// NewDiagnosticsService creates a diagnostics service.
// metrics is optional; nil disables extraction metrics.
func NewDiagnosticsService(
	factory driven.ConnectorFactory,
	tokens driven.TokenProviderFactory,
	config driven.ConfigStore,
	metrics *extract.Metrics,
) *DiagnosticsService {
	return &DiagnosticsService{
		factory: factory,
		tokens:  tokens,
		config:  config,
		metrics: metrics,
		now:     time.Now,
	}
}

// SourceTypes lists the registered source types.
func (s *DiagnosticsService) SourceTypes() []domain.ConnectorType {
	return s.factory.SupportedTypes()
}

// CheckConnection verifies configuration, credentials and connectivity.
func (s *DiagnosticsService) CheckConnection(ctx context.Context, sourceType string) error {
	conn, err := s.connect(ctx, sourceType)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Validate(ctx); err != nil {
		return fmt.Errorf("validate %s: %w", sourceType, err)
	}
	logger.Debug("source %s passed validation", sourceType)
	return nil
}

// RunSync drives one pass of sourceType into opts.Sink.
func (s *DiagnosticsService) RunSync(
	ctx context.Context,
	sourceType string,
	opts driving.SyncOptions,
) (*driving.SyncReport, error) {
	report := &driving.SyncReport{
		RunID:      uuid.NewString(),
		SourceType: sourceType,
		StartedAt:  s.now(),
	}
	defer func() { report.FinishedAt = s.now() }()

	conn, err := s.connect(ctx, sourceType)
	if err != nil {
		return report, err
	}
	defer conn.Close()

	log := logger.With("run_id", report.RunID, "source", sourceType)
	log.Infow("starting sync", "limit", opts.Limit)

	err = s.drive(ctx, conn, opts, report)

	log.Infow("sync finished",
		"entities", report.Entities,
		"files", report.Files,
		"limited", report.Limited,
		"error", err)
	return report, err
}

func (s *DiagnosticsService) drive(
	ctx context.Context,
	conn driven.Connector,
	opts driving.SyncOptions,
	report *driving.SyncReport,
) error {
	for e, err := range conn.Entities(ctx) {
		if err != nil {
			return fmt.Errorf("sync %s: %w", report.SourceType, err)
		}
		if opts.Sink != nil {
			if err := opts.Sink.Consume(ctx, e); err != nil {
				return fmt.Errorf("sink %s: %w", e.Base().EntityID, err)
			}
		}
		report.Entities++
		if domain.Kind(e) == "file" {
			report.Files++
		}
		if opts.Limit > 0 && report.Entities >= opts.Limit {
			report.Limited = true
			return nil
		}
	}
	return nil
}

// connect resolves config and credentials for sourceType and builds its
// connector. Each failure names the missing prerequisite.
func (s *DiagnosticsService) connect(ctx context.Context, sourceType string) (driven.Connector, error) {
	ct, ok := s.factory.ConnectorType(sourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, sourceType)
	}

	source, found := s.config.Source(sourceType)
	if err := ct.ValidateConfig(source.Config); err != nil {
		if !found {
			return nil, fmt.Errorf("%w (no [sources.%s] section in %s)", err, sourceType, s.config.Path())
		}
		return nil, err
	}

	tokens, err := s.tokens.Create(ctx, source, ct.AuthMethod)
	if err != nil {
		return nil, fmt.Errorf("credentials for %s: %w", sourceType, err)
	}
	if ct.RequiresAuth() && !tokens.IsAuthenticated() {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthRequired, sourceType)
	}

	engine := s.config.Engine()
	engine.Metrics = s.metrics
	conn, err := s.factory.Create(ctx, source, tokens, engine)
	if err != nil {
		if errors.Is(err, domain.ErrMissingConfig) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("create connector %s: %w", sourceType, err)
	}
	return conn, nil
}
