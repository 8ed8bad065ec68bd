package github

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// ContentType represents the type of content to produce.
type ContentType string

const (
	ContentIssues ContentType = "issues"
	ContentPRs    ContentType = "prs"
	ContentFiles  ContentType = "files"
)

// AllContentTypes returns all supported content types.
func AllContentTypes() []ContentType {
	return []ContentType{ContentIssues, ContentPRs, ContentFiles}
}

// Config holds the parsed configuration for a GitHub source.
type Config struct {
	// Repos limits the pass to owner/name pairs. Empty means all accessible.
	Repos []string

	// ContentTypes specifies what content to produce beneath each repository.
	ContentTypes []ContentType

	// FilePatterns are glob patterns for file filtering. Empty means all files.
	FilePatterns []string

	IncludeForks    bool
	IncludeArchived bool

	// BaseURL overrides the API root.
	BaseURL string

	// RequestsPerSecond is the proactive throttle. Zero or less disables it.
	RequestsPerSecond float64

	// PerPage is the list page size.
	PerPage int
}

// ParseConfig parses a source's config map into a Config struct.
// All fields are optional.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		Repos:             source.GetList("repos"),
		ContentTypes:      AllContentTypes(),
		FilePatterns:      source.GetList("file_patterns"),
		IncludeForks:      source.GetBool("include_forks", false),
		IncludeArchived:   source.GetBool("include_archived", false),
		BaseURL:           source.Get("base_url", ""),
		RequestsPerSecond: ProactiveRate,
		PerPage:           source.GetInt("per_page", 100),
	}

	if raw := source.Get("content_types", ""); raw != "" {
		types, err := parseContentTypes(raw)
		if err != nil {
			return nil, err
		}
		cfg.ContentTypes = types
	}

	if raw := source.Get("requests_per_second", ""); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, ErrConfigInvalidRate
		}
		cfg.RequestsPerSecond = rps
	}

	for _, r := range cfg.Repos {
		if _, _, ok := splitRepo(r); !ok {
			return nil, ErrConfigInvalidRepo
		}
	}
	return cfg, nil
}

// parseContentTypes parses a comma-separated content types string.
func parseContentTypes(s string) ([]ContentType, error) {
	valid := map[string]ContentType{
		"issues": ContentIssues,
		"prs":    ContentPRs,
		"files":  ContentFiles,
	}

	var types []ContentType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		ct, ok := valid[part]
		if !ok {
			return nil, ErrConfigInvalidContentType
		}
		types = append(types, ct)
	}

	if len(types) == 0 {
		return AllContentTypes(), nil
	}
	return types, nil
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

// splitRepo splits "owner/name".
func splitRepo(full string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(full, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
