package dropbox

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// DefaultRequestsPerSecond keeps well inside Dropbox's per-user limits.
const DefaultRequestsPerSecond = 10.0

// ErrConfigInvalidRate indicates a malformed requests_per_second value.
var ErrConfigInvalidRate = errors.New("dropbox: invalid requests_per_second")

// Config holds Dropbox connector configuration.
type Config struct {
	// Paths are the folders walked each pass. "" is the account root.
	Paths []string
	// Extensions restricts file entities to these lower-case extensions.
	Extensions []string
	// PageSize is the list_folder limit.
	PageSize uint32
	// BaseURL overrides the API and content hosts.
	BaseURL string
	// RequestsPerSecond throttles API calls. Zero disables throttling.
	RequestsPerSecond float64
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		Paths:             []string{""},
		PageSize:          500,
		RequestsPerSecond: DefaultRequestsPerSecond,
		BaseURL:           strings.TrimSuffix(source.Get("base_url", ""), "/"),
	}

	if paths := source.GetList("paths"); len(paths) > 0 {
		cfg.Paths = make([]string, len(paths))
		for i, p := range paths {
			cfg.Paths[i] = normalizePath(p)
		}
	}

	for _, ext := range source.GetList("extensions") {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions = append(cfg.Extensions, ext)
	}

	if n := source.GetInt("page_size", 0); n > 0 && n <= 2000 {
		cfg.PageSize = uint32(n)
	}

	if v := source.Get("requests_per_second", ""); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("%w: %q", ErrConfigInvalidRate, v)
		}
		cfg.RequestsPerSecond = rps
	}

	return cfg, nil
}

// normalizePath maps "/" to the root and ensures a leading slash otherwise.
func normalizePath(p string) string {
	p = strings.TrimSuffix(strings.TrimSpace(p), "/")
	if p == "" || strings.HasPrefix(p, "id:") || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
