package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

func TestConfigStore_Defaults(t *testing.T) {
	s := NewConfigStore()

	require.NoError(t, s.Load())
	assert.Equal(t, extract.DefaultSettings(), s.Engine())
	assert.Empty(t, s.SourceTypes())
	assert.Empty(t, s.Path())

	src, ok := s.Source("github")
	assert.False(t, ok)
	assert.Equal(t, "github", src.Type)
	assert.NotNil(t, src.Config)
}

func TestConfigStore_SetSource(t *testing.T) {
	s := NewConfigStore()
	cfg := map[string]string{"root_path": "/tmp"}
	s.SetSource("filesystem", domain.Source{Name: "Notes", Config: cfg})
	s.SetSource("github", domain.Source{ID: "work", Config: map[string]string{"repos": "a/b"}})

	cfg["root_path"] = "/changed"

	fs, ok := s.Source("filesystem")
	require.True(t, ok)
	assert.Equal(t, "filesystem", fs.ID)
	assert.Equal(t, "Notes", fs.Name)
	assert.Equal(t, "/tmp", fs.Config["root_path"])

	fs.Config["root_path"] = "/mutated"
	again, _ := s.Source("filesystem")
	assert.Equal(t, "/tmp", again.Config["root_path"])

	gh, _ := s.Source("github")
	assert.Equal(t, "work", gh.ID)
	assert.Equal(t, []string{"filesystem", "github"}, s.SourceTypes())
}

func TestConfigStore_SetEngine(t *testing.T) {
	s := NewConfigStore()
	engine := extract.DefaultSettings()
	engine.ChunkSize = 7
	engine.StrictSize = true

	s.SetEngine(engine)

	assert.Equal(t, 7, s.Engine().ChunkSize)
	assert.True(t, s.Engine().StrictSize)
}
