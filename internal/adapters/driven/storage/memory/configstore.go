// Package memory provides in-memory implementations of driven ports for
// embedding applications and tests.
package memory

import (
	"maps"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory implementation of driven.ConfigStore.
type ConfigStore struct {
	mu      sync.RWMutex
	engine  extract.Settings
	sources map[string]domain.Source
}

// NewConfigStore creates a store with default engine settings and no sources.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		engine:  extract.DefaultSettings(),
		sources: make(map[string]domain.Source),
	}
}

// Load is a no-op.
func (s *ConfigStore) Load() error {
	return nil
}

// SetEngine replaces the engine settings.
func (s *ConfigStore) SetEngine(engine extract.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
}

// Engine returns the engine settings.
func (s *ConfigStore) Engine() extract.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetSource stores the section for a source type. Empty ID and Type
// default to sourceType.
func (s *ConfigStore) SetSource(sourceType string, source domain.Source) {
	if source.ID == "" {
		source.ID = sourceType
	}
	source.Type = sourceType
	source.Config = maps.Clone(source.Config)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[sourceType] = source
}

// Source returns a copy of the section for sourceType.
func (s *ConfigStore) Source(sourceType string) (domain.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[sourceType]
	if !ok {
		return domain.Source{ID: sourceType, Type: sourceType, Config: map[string]string{}}, false
	}
	src.Config = maps.Clone(src.Config)
	if src.Config == nil {
		src.Config = map[string]string{}
	}
	return src, true
}

// SourceTypes returns the stored source types sorted by name.
func (s *ConfigStore) SourceTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.sources))
	for t := range s.sources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Path returns an empty string since there is no backing file.
func (s *ConfigStore) Path() string {
	return ""
}
