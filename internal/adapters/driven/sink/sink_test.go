package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

func content(chunks ...string) func(func([]byte, error) bool) {
	return func(yield func([]byte, error) bool) {
		for _, c := range chunks {
			if !yield([]byte(c), nil) {
				return
			}
		}
	}
}

func sampleEntities() []domain.Entity {
	size := int64(5)
	return []domain.Entity{
		&domain.ChunkEntity{
			BaseEntity: domain.BaseEntity{EntityID: "repo-1", SourceID: "gh", Type: "repository", Name: "repo"},
			Content:    "readme",
		},
		&domain.FileEntity{
			BaseEntity: domain.BaseEntity{
				EntityID:    "file-1",
				SourceID:    "gh",
				Type:        "file",
				Name:        "a.txt",
				Breadcrumbs: []domain.Breadcrumb{{EntityID: "repo-1", Name: "repo", Type: "repository"}},
			},
			FileID:   "sha",
			FileName: "a.txt",
			MIMEType: "text/plain",
			Size:     &size,
			Location: "https://example.com/a.txt",
			Content:  content("hel", "lo"),
		},
	}
}

func TestNDJSON_Consume(t *testing.T) {
	var buf bytes.Buffer
	s := NewNDJSON(&buf)

	for _, e := range sampleEntities() {
		require.NoError(t, s.Consume(context.Background(), e))
	}
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var chunk map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &chunk))
	assert.Equal(t, "chunk", chunk["kind"])
	assert.Equal(t, "repo-1", chunk["entity_id"])
	assert.Equal(t, "readme", chunk["content"])
	assert.Equal(t, []any{}, chunk["breadcrumbs"])
	assert.NotContains(t, chunk, "bytes_streamed")
	assert.NotContains(t, chunk, "location")

	var file map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &file))
	assert.Equal(t, "file", file["kind"])
	assert.Equal(t, "sha", file["file_id"])
	assert.Equal(t, "https://example.com/a.txt", file["location"])
	assert.InDelta(t, 5, file["bytes_streamed"], 0)
	assert.InDelta(t, 5, file["size"], 0)
	crumbs := file["breadcrumbs"].([]any)
	require.Len(t, crumbs, 1)
	assert.Equal(t, "repo-1", crumbs[0].(map[string]any)["entity_id"])

	assert.Equal(t, Stats{Entities: 2, Files: 1, Bytes: 5}, s.Stats())
}

func TestNDJSON_ChunkWithAllFields(t *testing.T) {
	var buf bytes.Buffer
	s := NewNDJSON(&buf)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	e := &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:    "issue-7",
			SourceID:    "gh",
			Type:        "issue",
			Name:        "Crash on start",
			Breadcrumbs: []domain.Breadcrumb{{EntityID: "repo-1", Name: "repo", Type: "repository"}},
			CreatedAt:   &created,
			URL:         "https://github.com/o/r/issues/7",
			Attributes:  map[string]any{"state": "open", "labels": []string{"bug"}},
		},
		Content: "it crashes",
	}
	require.NoError(t, s.Consume(context.Background(), e))
	require.NoError(t, s.Close())

	var got map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	assert.Equal(t, "chunk", got["kind"])
	assert.Equal(t, "issue-7", got["entity_id"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["created_at"])
	assert.Equal(t, "it crashes", got["content"])
	assert.Equal(t, "open", got["attributes"].(map[string]any)["state"])
	assert.Len(t, got["breadcrumbs"], 1)
}

func TestNDJSON_EmptyFileReportsZeroBytes(t *testing.T) {
	var buf bytes.Buffer
	s := NewNDJSON(&buf)

	require.NoError(t, s.Consume(context.Background(), &domain.FileEntity{
		BaseEntity: domain.BaseEntity{EntityID: "f", Type: "file"},
		Location:   "x",
		Content:    content(),
	}))
	require.NoError(t, s.Close())

	var got map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	assert.InDelta(t, 0, got["bytes_streamed"], 0)
}

func TestNDJSON_StreamError(t *testing.T) {
	var buf bytes.Buffer
	s := NewNDJSON(&buf)
	boom := errors.New("boom")

	f := &domain.FileEntity{
		BaseEntity: domain.BaseEntity{EntityID: "f"},
		Location:   "x",
		Content: func(yield func([]byte, error) bool) {
			if yield([]byte("ab"), nil) {
				yield(nil, boom)
			}
		},
	}

	err := s.Consume(context.Background(), f)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, s.Close())
	assert.Empty(t, buf.String())
}

func TestNDJSON_CancelledContext(t *testing.T) {
	s := NewNDJSON(&bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Consume(ctx, sampleEntities()[0]), context.Canceled)
}

func TestDiscard_DoesNotReadContent(t *testing.T) {
	s := NewDiscard()
	opened := false
	f := &domain.FileEntity{
		BaseEntity: domain.BaseEntity{EntityID: "f"},
		Location:   "x",
		Content: func(func([]byte, error) bool) {
			opened = true
		},
	}

	require.NoError(t, s.Consume(context.Background(), sampleEntities()[0]))
	require.NoError(t, s.Consume(context.Background(), f))
	require.NoError(t, s.Close())

	assert.False(t, opened)
	assert.Equal(t, Stats{Entities: 2, Files: 1}, s.Stats())
}
