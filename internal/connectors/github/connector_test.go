package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/extract/extracttest"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// mockTokenProvider implements driven.TokenProvider for testing.
type mockTokenProvider struct {
	token string
	err   error
}

func (p *mockTokenProvider) GetToken(_ context.Context) (string, error) {
	return p.token, p.err
}

func (p *mockTokenProvider) AuthMethod() domain.AuthMethod {
	return domain.AuthMethodPAT
}

func (p *mockTokenProvider) IsAuthenticated() bool {
	return p.token != ""
}

// fakeGitHub serves the subset of the REST API the connector uses.
type fakeGitHub struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
	// fail maps a route to statuses returned before succeeding.
	fail map[string][]int
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{hits: map[string]int{}, fail: map[string][]int{}}

	mux := http.NewServeMux()
	f.handle(mux, "GET /user", `{"login":"octocat"}`)
	f.handle(mux, "GET /user/repos", `[{"id":10,"node_id":"R_10","name":"hello","full_name":"octo/hello",
		"owner":{"login":"octo"},"default_branch":"main","has_issues":true,
		"html_url":"https://github.com/octo/hello","description":"says hello"},
		{"id":11,"node_id":"R_11","name":"fork","full_name":"octo/fork","owner":{"login":"octo"},"fork":true}]`)
	f.handle(mux, "GET /repos/octo/hello/issues", `[
		{"id":1,"node_id":"I_1","number":1,"title":"Bug","body":"broken","state":"open","comments":1,
		 "user":{"login":"alice"},"created_at":"2024-01-02T03:04:05Z"},
		{"id":2,"node_id":"I_2","number":2,"title":"Fix","pull_request":{"url":"x"}}]`)
	f.handle(mux, "GET /repos/octo/hello/issues/1/comments", `[{"id":5,"node_id":"C_5","body":"+1","user":{"login":"bob"}}]`)
	f.handle(mux, "GET /repos/octo/hello/pulls", `[{"id":2,"node_id":"PR_2","number":2,"title":"Fix","state":"closed",
		"merged_at":"2024-02-01T00:00:00Z","user":{"login":"alice"}}]`)
	f.handle(mux, "GET /repos/octo/hello/git/trees/main", `{"sha":"t1","truncated":false,"tree":[
		{"path":"docs","type":"tree","sha":"d1"},
		{"path":"docs/readme.md","type":"blob","sha":"b1","size":5},
		{"path":"logo.png","type":"blob","sha":"b2","size":3},
		{"path":"docs/api","type":"tree","sha":"d2"},
		{"path":"docs/api/v1.md","type":"blob","sha":"b3","size":2}]}`)
	mux.HandleFunc("GET /repos/octo/hello/git/blobs/{sha}", func(w http.ResponseWriter, r *http.Request) {
		if f.failed(w, "blob") {
			return
		}
		assert.Equal(t, rawMediaType, r.Header.Get("Accept"))
		switch r.PathValue("sha") {
		case "b1":
			_, _ = w.Write([]byte("hello"))
		case "b3":
			_, _ = w.Write([]byte("v1"))
		default:
			_, _ = w.Write([]byte("png"))
		}
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGitHub) handle(mux *http.ServeMux, pattern, body string) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if f.failed(w, pattern) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

// failed records a hit and writes a scripted failure, if any remain.
func (f *fakeGitHub) failed(w http.ResponseWriter, route string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[route]++
	if statuses := f.fail[route]; len(statuses) > 0 {
		f.fail[route] = statuses[1:]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statuses[0])
		_, _ = fmt.Fprintf(w, `{"message":"scripted %d"}`, statuses[0])
		return true
	}
	return false
}

func (f *fakeGitHub) hitCount(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[route]
}

func (f *fakeGitHub) failWith(route string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[route] = statuses
}

func newTestConnector(t *testing.T, srv *fakeGitHub, extra map[string]string) *Connector {
	t.Helper()
	policy, _ := extracttest.Policy()
	engine := extract.Settings{Retry: policy, ChunkSize: 4}

	cfg := map[string]string{"base_url": srv.URL, "requests_per_second": "0"}
	for k, v := range extra {
		cfg[k] = v
	}
	conn, err := Build(domain.Source{ID: "gh-1", Type: TypeID, Config: cfg}, &mockTokenProvider{token: "tok"}, engine)
	require.NoError(t, err)
	return conn.(*Connector)
}

func drainFile(t *testing.T, f *domain.FileEntity) string {
	t.Helper()
	var buf bytes.Buffer
	for chunk, err := range f.Content {
		require.NoError(t, err)
		buf.Write(chunk)
	}
	return buf.String()
}

func TestConnector_EntitiesHierarchy(t *testing.T) {
	srv := newFakeGitHub(t)
	conn := newTestConnector(t, srv, map[string]string{"file_patterns": "*.md"})

	entities, err := extracttest.Collect(conn.Entities(context.Background()))
	require.NoError(t, err)

	types := make([]string, len(entities))
	for i, e := range entities {
		types[i] = e.Base().Type
		assert.Equal(t, "gh-1", e.Base().SourceID)
	}
	assert.Equal(t, []string{
		"repository", "issue", "issue_comment", "pull_request",
		"directory", "directory", "file", "file",
	}, types)
	assert.Empty(t, extracttest.Orphans(entities))

	repoCrumb := domain.Breadcrumb{EntityID: "R_10", Name: "octo/hello", Type: "repository"}
	issueCrumb := domain.Breadcrumb{EntityID: "I_1", Name: "#1 Bug", Type: "issue"}
	docsCrumb := domain.Breadcrumb{EntityID: "octo/hello:docs/", Name: "docs", Type: "directory"}
	apiCrumb := domain.Breadcrumb{EntityID: "octo/hello:docs/api/", Name: "api", Type: "directory"}

	assert.Empty(t, entities[0].Base().Breadcrumbs)
	assert.Equal(t, []domain.Breadcrumb{repoCrumb}, entities[1].Base().Breadcrumbs)
	assert.Equal(t, []domain.Breadcrumb{repoCrumb, issueCrumb}, entities[2].Base().Breadcrumbs)
	assert.Equal(t, []domain.Breadcrumb{repoCrumb}, entities[3].Base().Breadcrumbs)
	assert.Equal(t, "merged", entities[3].Base().Attributes["state"])

	docs := entities[4].(*domain.ChunkEntity)
	assert.Equal(t, docsCrumb, docs.Crumb())
	assert.Equal(t, []domain.Breadcrumb{repoCrumb}, docs.Breadcrumbs)
	assert.Equal(t, "https://github.com/octo/hello/tree/main/docs", docs.URL)

	api := entities[5].(*domain.ChunkEntity)
	assert.Equal(t, apiCrumb, api.Crumb())
	assert.Equal(t, []domain.Breadcrumb{repoCrumb, docsCrumb}, api.Breadcrumbs)

	nested, ok := entities[6].(*domain.FileEntity)
	require.True(t, ok)
	assert.Equal(t, "v1.md", nested.FileName)
	assert.Equal(t, []domain.Breadcrumb{repoCrumb, docsCrumb, apiCrumb}, nested.Breadcrumbs)

	file, ok := entities[7].(*domain.FileEntity)
	require.True(t, ok)
	assert.Equal(t, "readme.md", file.FileName)
	assert.Equal(t, "text/markdown", file.MIMEType)
	assert.Equal(t, []domain.Breadcrumb{repoCrumb, docsCrumb}, file.Breadcrumbs)
	assert.Equal(t, "hello", drainFile(t, file))
	assert.Zero(t, srv.hitCount("GET /repos/octo/fork/issues"))
}

func TestConnector_RetriesTransientListFailure(t *testing.T) {
	srv := newFakeGitHub(t)
	srv.failWith("GET /repos/octo/hello/pulls", http.StatusBadGateway, http.StatusServiceUnavailable)
	conn := newTestConnector(t, srv, map[string]string{"content_types": "prs"})

	entities, err := extracttest.Collect(conn.Entities(context.Background()))

	require.NoError(t, err)
	assert.Len(t, entities, 2)
	assert.Equal(t, 3, srv.hitCount("GET /repos/octo/hello/pulls"))
}

func TestConnector_PermanentFailureStopsPass(t *testing.T) {
	srv := newFakeGitHub(t)
	srv.failWith("GET /repos/octo/hello/issues", http.StatusForbidden)
	conn := newTestConnector(t, srv, nil)

	entities, err := extracttest.Collect(conn.Entities(context.Background()))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Len(t, entities, 1)
	assert.Equal(t, "repository", entities[0].Base().Type)
	assert.Equal(t, 1, srv.hitCount("GET /repos/octo/hello/issues"))
	assert.Zero(t, srv.hitCount("GET /repos/octo/hello/pulls"))
}

func TestConnector_EarlyStopIssuesNoFurtherFetches(t *testing.T) {
	srv := newFakeGitHub(t)
	conn := newTestConnector(t, srv, nil)

	for e, err := range conn.Entities(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, "repository", e.Base().Type)
		break
	}

	assert.Zero(t, srv.hitCount("GET /repos/octo/hello/issues"))
	assert.Zero(t, srv.hitCount("GET /repos/octo/hello/pulls"))
}

func TestConnector_BlobOpenRetried(t *testing.T) {
	srv := newFakeGitHub(t)
	srv.failWith("blob", http.StatusServiceUnavailable)
	conn := newTestConnector(t, srv, map[string]string{"content_types": "files", "file_patterns": "*.md"})

	entities, err := extracttest.Collect(conn.Entities(context.Background()))
	require.NoError(t, err)
	require.Len(t, entities, 5)

	assert.Equal(t, "hello", drainFile(t, entities[4].(*domain.FileEntity)))
	assert.Equal(t, 2, srv.hitCount("blob"))
}

func TestConnector_FilesOnlyDirectoriesWithMatches(t *testing.T) {
	srv := newFakeGitHub(t)
	conn := newTestConnector(t, srv, map[string]string{"content_types": "files", "file_patterns": "*.png"})

	entities, err := extracttest.Collect(conn.Entities(context.Background()))

	require.NoError(t, err)
	assert.Equal(t, []string{"R_10", "octo/hello:logo.png"}, extracttest.IDs(entities))
	assert.Empty(t, extracttest.Orphans(entities))
}

func TestConnector_ExplicitRepos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/hello", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":10,"node_id":"R_10","name":"hello","full_name":"octo/hello","owner":{"login":"octo"}}`))
	})
	single := httptest.NewServer(mux)
	defer single.Close()

	conn := newTestConnector(t, &fakeGitHub{Server: single}, map[string]string{
		"repos":         "octo/hello",
		"content_types": "issues",
	})

	entities, err := extracttest.Collect(conn.Entities(context.Background()))

	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "R_10", entities[0].Base().EntityID)
}

func TestConnector_Validate(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		srv := newFakeGitHub(t)
		conn := newTestConnector(t, srv, nil)

		assert.NoError(t, conn.Validate(context.Background()))
	})

	t.Run("rejected token", func(t *testing.T) {
		srv := newFakeGitHub(t)
		srv.failWith("GET /user", http.StatusUnauthorized)
		conn := newTestConnector(t, srv, nil)

		err := conn.Validate(context.Background())

		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
		assert.Equal(t, 1, srv.hitCount("GET /user"))
	})

	t.Run("no token", func(t *testing.T) {
		conn := New("s", &Config{}, &mockTokenProvider{}, extract.DefaultSettings())

		assert.ErrorIs(t, conn.Validate(context.Background()), domain.ErrAuthRequired)
	})

	t.Run("token provider failure", func(t *testing.T) {
		boom := errors.New("keychain locked")
		conn := New("s", &Config{}, &mockTokenProvider{err: boom}, extract.DefaultSettings())

		assert.ErrorIs(t, conn.Validate(context.Background()), boom)
	})
}

func TestConnector_Closed(t *testing.T) {
	conn := New("s", &Config{}, &mockTokenProvider{token: "t"}, extract.DefaultSettings())
	require.NoError(t, conn.Close())

	_, err := extracttest.Collect(conn.Entities(context.Background()))

	assert.ErrorIs(t, err, domain.ErrConnectorClosed)
	assert.ErrorIs(t, conn.Validate(context.Background()), domain.ErrConnectorClosed)
}

func TestConnector_Metadata(t *testing.T) {
	conn := New("test-source", &Config{}, nil, extract.DefaultSettings())
	var _ driven.Connector = conn

	assert.Equal(t, "github", conn.Type())
	assert.Equal(t, "test-source", conn.SourceID())
	caps := conn.Capabilities()
	assert.True(t, caps.SupportsHierarchy)
	assert.True(t, caps.SupportsBinary)
	assert.True(t, caps.RequiresAuth)

	ct := ConnectorType()
	assert.Equal(t, TypeID, ct.ID)
	assert.Equal(t, domain.AuthMethodPAT, ct.AuthMethod)
}
