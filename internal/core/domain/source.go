package domain

import (
	"strconv"
	"strings"
)

// Source represents a configured data source instance.
type Source struct {
	// ID is the unique identifier for the source.
	// Defaults to the connector type when only one instance is configured.
	ID string

	// Type identifies the connector type (e.g., "github", "dropbox").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// Config contains connector-specific configuration.
	Config map[string]string
}

// Get returns a trimmed config value, or def when absent.
func (s *Source) Get(key, def string) string {
	if v, ok := s.Config[key]; ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return def
}

// GetBool returns a boolean config value, or def when absent or malformed.
func (s *Source) GetBool(key string, def bool) bool {
	v, err := strconv.ParseBool(s.Get(key, ""))
	if err != nil {
		return def
	}
	return v
}

// GetInt returns an integer config value, or def when absent or malformed.
func (s *Source) GetInt(key string, def int) int {
	v, err := strconv.Atoi(s.Get(key, ""))
	if err != nil {
		return def
	}
	return v
}

// GetList splits a comma-separated config value, dropping empty parts.
func (s *Source) GetList(key string) []string {
	raw := s.Get(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
