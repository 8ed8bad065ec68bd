package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// TypeID is the source type identifier.
const TypeID = "filesystem"

// Entity type tags.
const (
	TypeDirectory = "directory"
	TypeFile      = "file"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Config holds filesystem connector configuration.
type Config struct {
	RootPath      string
	IncludeHidden bool
	Extensions    []string
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	root := source.Get("root_path", "")
	if root == "" {
		return nil, fmt.Errorf("%w: filesystem requires root_path", domain.ErrMissingConfig)
	}
	if strings.HasPrefix(root, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, root[2:])
		}
	}
	cfg := &Config{
		RootPath:      filepath.Clean(root),
		IncludeHidden: source.GetBool("include_hidden", false),
	}
	for _, ext := range source.GetList("extensions") {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions = append(cfg.Extensions, ext)
	}
	return cfg, nil
}

// Connector produces entities from a local directory tree.
type Connector struct {
	sourceID string
	config   *Config
	relay    *extract.Relay
	metrics  *extract.Metrics
	mu       sync.Mutex
	closed   bool
}

// New creates a new filesystem connector.
func New(sourceID string, cfg *Config, engine extract.Settings) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		relay:    engine.NewRelay(openFile, extract.DefaultClassifier),
		metrics:  engine.Metrics,
	}
}

// Build implements driven.ConnectorBuilder. No token is needed.
func Build(source domain.Source, _ driven.TokenProvider, engine extract.Settings) (driven.Connector, error) {
	cfg, err := ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return New(source.ID, cfg, engine), nil
}

// ConnectorType declares the filesystem source type.
func ConnectorType() domain.ConnectorType {
	return domain.ConnectorType{
		ID:          TypeID,
		Name:        "Local Filesystem",
		Description: "Directories and files under a local path",
		AuthMethod:  domain.AuthMethodNone,
		ConfigKeys: []domain.ConfigKey{
			{Key: "root_path", Label: "Root Path", Description: "Directory to walk", Required: true},
			{Key: "include_hidden", Label: "Include Hidden", Description: "Walk dot-prefixed entries", Default: "false"},
			{Key: "extensions", Label: "Extensions", Description: "Only sync these extensions"},
		},
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return TypeID
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsHierarchy:  true,
		SupportsBinary:     true,
		SupportsValidation: true,
	}
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	info, err := os.Stat(c.config.RootPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: path does not exist: %s", domain.ErrConnectorValidation, c.config.RootPath)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: path is not a directory: %s", domain.ErrConnectorValidation, c.config.RootPath)
	}
	return nil
}

// Entities returns one pass over the directory tree.
func (c *Connector) Entities(ctx context.Context) iter.Seq2[domain.Entity, error] {
	return func(yield func(domain.Entity, error) bool) {
		if c.isClosed() {
			yield(nil, domain.ErrConnectorClosed)
			return
		}
		if err := c.Validate(ctx); err != nil {
			yield(nil, err)
			return
		}

		o := &extract.Orchestrator{
			SourceID: c.sourceID,
			Relay:    c.relay,
			Metrics:  c.metrics,
			Producers: []extract.Producer{
				{Name: "tree", Run: func(ctx context.Context, em *extract.Emitter) error {
					return c.walk(ctx, em, c.config.RootPath)
				}},
			},
		}
		for e, err := range o.Produce(ctx) {
			if !yield(e, err) {
				return
			}
		}
	}
}

// walk emits the entries of dir in name order, descending into
// sub-directories before moving on.
func (c *Connector) walk(ctx context.Context, em *extract.Emitter, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.config.IncludeHidden && isHidden(entry.Name()) {
			continue
		}

		p := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		switch {
		case info.IsDir():
			d := c.directoryEntity(p, info)
			if err := em.Emit(d); err != nil {
				return err
			}
			if err := em.Descend(d.Crumb(), func() error { return c.walk(ctx, em, p) }); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if !c.wantFile(entry.Name()) {
				continue
			}
			if err := em.Emit(c.fileEntity(p, info)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Connector) relPath(p string) string {
	rel, err := filepath.Rel(c.config.RootPath, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

func (c *Connector) directoryEntity(p string, info fs.FileInfo) *domain.ChunkEntity {
	rel := c.relPath(p)
	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:   rel + "/",
			Type:       TypeDirectory,
			Name:       info.Name(),
			UpdatedAt:  domain.TimePtr(info.ModTime()),
			URL:        "file://" + p,
			Attributes: map[string]any{"path": rel},
		},
		Content: rel,
	}
}

func (c *Connector) fileEntity(p string, info fs.FileInfo) *domain.FileEntity {
	rel := c.relPath(p)
	size := info.Size()
	return &domain.FileEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:   rel,
			Type:       TypeFile,
			Name:       info.Name(),
			UpdatedAt:  domain.TimePtr(info.ModTime()),
			URL:        "file://" + p,
			Attributes: map[string]any{"path": rel, "mode": info.Mode().String()},
		},
		FileID:   rel,
		FileName: info.Name(),
		MIMEType: detectMIMEType(info.Name()),
		Size:     &size,
		Location: p,
	}
}

func (c *Connector) wantFile(name string) bool {
	if len(c.config.Extensions) == 0 {
		return true
	}
	return slices.Contains(c.config.Extensions, strings.ToLower(filepath.Ext(name)))
}

// openFile implements extract.StreamOpener for local paths. A missing or
// unreadable file will not appear on retry.
func openFile(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, extract.Permanent(err)
	}
	return f, nil
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// isHidden reports whether any element of path is dot-prefixed.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

// customMIMETypes covers source and config formats the mime package lacks.
var customMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
}

// detectMIMEType maps a file name to a media type without parameters.
func detectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := customMIMETypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	return "application/octet-stream"
}
