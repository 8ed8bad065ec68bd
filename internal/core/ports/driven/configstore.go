package driven

import (
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Load reads configuration from storage.
	// A missing file is not an error; defaults apply.
	Load() error

	// Engine returns the retry and relay settings.
	Engine() extract.Settings

	// Source returns the configuration section for a source type.
	// The boolean is false when no [sources.<type>] section exists.
	Source(sourceType string) (domain.Source, bool)

	// SourceTypes returns the types with a [sources.<type>] section.
	SourceTypes() []string

	// Path returns the configuration file path.
	Path() string
}
