package notion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// DefaultRequestsPerSecond is Notion's documented average rate limit.
const DefaultRequestsPerSecond = 3.0

// maxPageSize is the largest page Notion returns.
const maxPageSize = 100

// ErrConfigInvalidRate indicates a malformed requests_per_second value.
var ErrConfigInvalidRate = errors.New("notion: invalid requests_per_second")

// Config holds Notion connector configuration.
type Config struct {
	// PageIDs are explicit root pages. Empty means search the workspace.
	PageIDs []string
	// PageSize is the page size for list requests.
	PageSize int
	// BaseURL overrides the API root.
	BaseURL string
	// RequestsPerSecond throttles API calls. Zero disables throttling.
	RequestsPerSecond float64
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		PageIDs:           source.GetList("page_ids"),
		PageSize:          maxPageSize,
		BaseURL:           strings.TrimSuffix(source.Get("base_url", ""), "/"),
		RequestsPerSecond: DefaultRequestsPerSecond,
	}

	if n := source.GetInt("page_size", 0); n > 0 && n < maxPageSize {
		cfg.PageSize = n
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
