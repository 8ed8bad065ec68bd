package drive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/connectors/google"
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// ContentType identifies what content to sync from Google Drive.
type ContentType string

const (
	// ContentFiles syncs regular files.
	ContentFiles ContentType = "files"
	// ContentDocs syncs Google Docs (exported to text).
	ContentDocs ContentType = "docs"
	// ContentSheets syncs Google Sheets (exported to CSV text).
	ContentSheets ContentType = "sheets"
)

// DefaultContentTypes are the content types synced by default.
var DefaultContentTypes = []ContentType{ContentFiles, ContentDocs, ContentSheets}

// Configuration errors.
var (
	ErrConfigInvalidContentType = errors.New("drive: invalid content type")
	ErrConfigInvalidRate        = errors.New("drive: invalid requests_per_second")
)

// Config holds Google Drive connector configuration.
type Config struct {
	// FolderIDs are the folders walked each pass. Defaults to "root".
	FolderIDs []string
	// ContentTypes specifies what types of content to sync.
	ContentTypes []ContentType
	// MimeTypeFilter limits syncing to specific MIME types (optional).
	MimeTypeFilter []string
	// PageSize is the page size for list requests.
	PageSize int64
	// BaseURL overrides the Drive API root.
	BaseURL string
	// RequestsPerSecond throttles API calls. Zero disables throttling.
	RequestsPerSecond float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FolderIDs:         []string{"root"},
		ContentTypes:      DefaultContentTypes,
		PageSize:          100,
		RequestsPerSecond: google.DefaultRequestsPerSecond,
	}
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := DefaultConfig()

	if ids := source.GetList("folder_ids"); len(ids) > 0 {
		cfg.FolderIDs = ids
	}

	if types := source.GetList("content_types"); len(types) > 0 {
		cfg.ContentTypes = make([]ContentType, 0, len(types))
		for _, t := range types {
			ct := ContentType(strings.ToLower(t))
			if !isValidContentType(ct) {
				return nil, fmt.Errorf("%w: %q", ErrConfigInvalidContentType, t)
			}
			cfg.ContentTypes = append(cfg.ContentTypes, ct)
		}
	}

	cfg.MimeTypeFilter = source.GetList("mime_types")
	cfg.BaseURL = source.Get("base_url", "")

	if n := source.GetInt("page_size", 0); n > 0 {
		cfg.PageSize = int64(n)
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

// HasContentType checks if a content type is enabled.
func (c *Config) HasContentType(ct ContentType) bool {
	for _, t := range c.ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

func isValidContentType(ct ContentType) bool {
	switch ct {
	case ContentFiles, ContentDocs, ContentSheets:
		return true
	default:
		return false
	}
}
