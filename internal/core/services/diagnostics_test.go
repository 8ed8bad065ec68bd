package services

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
)

type mockTokenProvider struct {
	token string
}

func (m *mockTokenProvider) GetToken(context.Context) (string, error) { return m.token, nil }
func (m *mockTokenProvider) AuthMethod() domain.AuthMethod            { return domain.AuthMethodPAT }
func (m *mockTokenProvider) IsAuthenticated() bool                    { return m.token != "" }

type mockTokenFactory struct {
	provider driven.TokenProvider
	err      error
}

func (m *mockTokenFactory) Create(context.Context, domain.Source, domain.AuthMethod) (driven.TokenProvider, error) {
	return m.provider, m.err
}

// mockConnector yields entities then err.
type mockConnector struct {
	entities    []domain.Entity
	err         error
	validateErr error
	pulled      int
	closed      bool
}

func (m *mockConnector) Type() string     { return "mock" }
func (m *mockConnector) SourceID() string { return "mock" }
func (m *mockConnector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{}
}
func (m *mockConnector) Validate(context.Context) error { return m.validateErr }
func (m *mockConnector) Close() error                   { m.closed = true; return nil }
func (m *mockConnector) Entities(context.Context) iter.Seq2[domain.Entity, error] {
	return func(yield func(domain.Entity, error) bool) {
		for _, e := range m.entities {
			m.pulled++
			if !yield(e, nil) {
				return
			}
		}
		if m.err != nil {
			yield(nil, m.err)
		}
	}
}

// mockFactory builds the single mock connector for type "mock".
type mockFactory struct {
	connectorType domain.ConnectorType
	conn          *mockConnector
	gotEngine     extract.Settings
}

func (m *mockFactory) Create(_ context.Context, s domain.Source, _ driven.TokenProvider, engine extract.Settings) (driven.Connector, error) {
	if s.Type != m.connectorType.ID {
		return nil, domain.ErrUnsupportedType
	}
	m.gotEngine = engine
	return m.conn, nil
}

func (m *mockFactory) Register(domain.ConnectorType, driven.ConnectorBuilder) error { return nil }

func (m *mockFactory) ConnectorType(id string) (domain.ConnectorType, bool) {
	return m.connectorType, id == m.connectorType.ID
}

func (m *mockFactory) SupportedTypes() []domain.ConnectorType {
	return []domain.ConnectorType{m.connectorType}
}

// recordingSink collects consumed entity IDs.
type recordingSink struct {
	ids []string
	err error
}

func (s *recordingSink) Consume(_ context.Context, e domain.Entity) error {
	if s.err != nil {
		return s.err
	}
	s.ids = append(s.ids, e.Base().EntityID)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func chunk(id string) domain.Entity {
	return &domain.ChunkEntity{BaseEntity: domain.BaseEntity{EntityID: id}}
}

func file(id string) domain.Entity {
	return &domain.FileEntity{BaseEntity: domain.BaseEntity{EntityID: id}, Location: id}
}

type fixture struct {
	svc     *DiagnosticsService
	factory *mockFactory
	conn    *mockConnector
	tokens  *mockTokenFactory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := &mockConnector{entities: []domain.Entity{chunk("a"), file("b"), chunk("c")}}
	factory := &mockFactory{
		connectorType: domain.ConnectorType{
			ID:         "mock",
			AuthMethod: domain.AuthMethodPAT,
			ConfigKeys: []domain.ConfigKey{{Key: "org", Required: true}},
		},
		conn: conn,
	}
	tokens := &mockTokenFactory{provider: &mockTokenProvider{token: "t"}}
	cfg := memory.NewConfigStore()
	cfg.SetSource("mock", domain.Source{Config: map[string]string{"org": "acme"}})
	metrics := extract.NewMetrics(nil)
	return &fixture{
		svc:     NewDiagnosticsService(factory, tokens, cfg, metrics),
		factory: factory,
		conn:    conn,
		tokens:  tokens,
	}
}

func TestDiagnostics_CheckConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("ready", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.CheckConnection(ctx, "mock"))
		assert.True(t, f.conn.closed)
	})

	t.Run("unknown type", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.svc.CheckConnection(ctx, "nope"), domain.ErrUnsupportedType)
	})

	t.Run("missing config", func(t *testing.T) {
		f := newFixture(t)
		f.svc.config = memory.NewConfigStore()
		err := f.svc.CheckConnection(ctx, "mock")
		assert.ErrorIs(t, err, domain.ErrMissingConfig)
		assert.Contains(t, err.Error(), "org")
		assert.Contains(t, err.Error(), "[sources.mock]")
	})

	t.Run("credentials unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.tokens.err = domain.ErrAuthRequired
		assert.ErrorIs(t, f.svc.CheckConnection(ctx, "mock"), domain.ErrAuthRequired)
	})

	t.Run("provider without token", func(t *testing.T) {
		f := newFixture(t)
		f.tokens.provider = &mockTokenProvider{}
		assert.ErrorIs(t, f.svc.CheckConnection(ctx, "mock"), domain.ErrAuthRequired)
	})

	t.Run("validation failure keeps cause", func(t *testing.T) {
		f := newFixture(t)
		f.conn.validateErr = domain.ErrAuthInvalid
		err := f.svc.CheckConnection(ctx, "mock")
		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
		assert.True(t, f.conn.closed)
	})
}

func TestDiagnostics_RunSync(t *testing.T) {
	f := newFixture(t)
	sink := &recordingSink{}

	report, err := f.svc.RunSync(context.Background(), "mock", driving.SyncOptions{Sink: sink})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sink.ids)
	assert.Equal(t, 3, report.Entities)
	assert.Equal(t, 1, report.Files)
	assert.False(t, report.Limited)
	assert.Equal(t, "mock", report.SourceType)
	_, parseErr := uuid.Parse(report.RunID)
	assert.NoError(t, parseErr)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.NotNil(t, f.factory.gotEngine.Metrics)
	assert.True(t, f.conn.closed)
}

func TestDiagnostics_RunSyncLimit(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.RunSync(context.Background(), "mock", driving.SyncOptions{Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Entities)
	assert.True(t, report.Limited)
	assert.Equal(t, 2, f.conn.pulled)
}

func TestDiagnostics_RunSyncFatalError(t *testing.T) {
	f := newFixture(t)
	cause := extract.Permanent(errors.New("404 repository gone"))
	f.conn.err = cause

	report, err := f.svc.RunSync(context.Background(), "mock", driving.SyncOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "404 repository gone")
	assert.Equal(t, 3, report.Entities)
}

func TestDiagnostics_RunSyncSinkError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("disk full")

	report, err := f.svc.RunSync(context.Background(), "mock", driving.SyncOptions{Sink: &recordingSink{err: boom}})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, report.Entities)
	assert.Equal(t, 1, f.conn.pulled)
}

func TestDiagnostics_RunSyncSetupError(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.RunSync(context.Background(), "nope", driving.SyncOptions{})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)
}

func TestDiagnostics_SourceTypes(t *testing.T) {
	f := newFixture(t)
	types := f.svc.SourceTypes()
	require.Len(t, types, 1)
	assert.Equal(t, "mock", types[0].ID)
}
