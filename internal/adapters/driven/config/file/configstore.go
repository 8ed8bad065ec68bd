package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultFileName is the config file name inside the sercha directory.
const DefaultFileName = "extract.toml"

type retrySection struct {
	Attempts       int     `toml:"attempts"`
	Multiplier     float64 `toml:"multiplier"`
	Unit           string  `toml:"unit"`
	Floor          string  `toml:"floor"`
	Ceiling        string  `toml:"ceiling"`
	AttemptTimeout string  `toml:"attempt_timeout"`
}

type relaySection struct {
	ChunkSize  int  `toml:"chunk_size"`
	StrictSize bool `toml:"strict_size"`
}

type document struct {
	Retry   retrySection              `toml:"retry"`
	Relay   relaySection              `toml:"relay"`
	Sources map[string]map[string]any `toml:"sources"`
}

// ConfigStore reads engine and source configuration from a TOML file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	engine   extract.Settings
	sources  map[string]map[string]string
}

// NewConfigStore creates a store for path and loads it.
// If path is empty, defaults to ~/.sercha/extract.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".sercha", DefaultFileName)
	}

	s := &ConfigStore{
		filePath: path,
		engine:   extract.DefaultSettings(),
		sources:  make(map[string]map[string]string),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads configuration from the TOML file. A missing file leaves the
// defaults in place.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.engine = extract.DefaultSettings()
			s.sources = make(map[string]map[string]string)
			return nil
		}
		return err
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, s.filePath, err)
	}

	engine, err := doc.settings()
	if err != nil {
		return fmt.Errorf("%s: %w", s.filePath, err)
	}

	sources := make(map[string]map[string]string, len(doc.Sources))
	for typ, section := range doc.Sources {
		flat := make(map[string]string)
		for k, v := range flattenMap(section, "") {
			flat[k] = stringify(v)
		}
		sources[typ] = flat
	}

	s.engine = engine
	s.sources = sources
	return nil
}

func (d document) settings() (extract.Settings, error) {
	out := extract.DefaultSettings()
	r := d.Retry
	if r.Attempts < 0 {
		return out, fmt.Errorf("%w: retry.attempts must not be negative", domain.ErrInvalidInput)
	}
	if r.Attempts > 0 {
		out.Retry.Attempts = r.Attempts
	}
	if r.Multiplier > 0 {
		out.Retry.Multiplier = r.Multiplier
	}
	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"retry.unit", r.Unit, &out.Retry.Unit},
		{"retry.floor", r.Floor, &out.Retry.Floor},
		{"retry.ceiling", r.Ceiling, &out.Retry.Ceiling},
		{"retry.attempt_timeout", r.AttemptTimeout, &out.Retry.AttemptTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return out, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, d.key, err)
		}
		*d.dst = v
	}
	if out.Retry.Floor > out.Retry.Ceiling {
		return out, fmt.Errorf("%w: retry.floor exceeds retry.ceiling", domain.ErrInvalidInput)
	}

	if d.Relay.ChunkSize > 0 {
		out.ChunkSize = d.Relay.ChunkSize
	}
	out.StrictSize = d.Relay.StrictSize
	return out, nil
}

// Engine returns the retry and relay settings.
func (s *ConfigStore) Engine() extract.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Source returns the configuration section for a source type.
// The section may override the source ID and name with "id" and "name".
func (s *ConfigStore) Source(sourceType string) (domain.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	section, ok := s.sources[sourceType]
	src := domain.Source{ID: sourceType, Type: sourceType, Config: make(map[string]string)}
	if !ok {
		return src, false
	}
	for k, v := range section {
		src.Config[k] = v
	}
	src.ID = src.Get("id", sourceType)
	src.Name = src.Get("name", sourceType)
	return src, true
}

// SourceTypes returns the configured source types sorted by name.
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

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}
	return result
}

// stringify renders a TOML value the way domain.Source expects it.
// Arrays become comma-separated lists.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
