package github

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// produceFiles emits the matching blobs of the default branch in path
// order. Each directory holding a match is emitted before its contents, which
// are nested beneath it.
func (c *Connector) produceFiles(ctx context.Context, em *extract.Emitter, repo *gh.Repository) error {
	branch := repo.GetDefaultBranch()
	if branch == "" {
		return nil
	}

	tree, err := c.client.GetTree(ctx, repo.GetOwner().GetLogin(), repo.GetName(), branch)
	if isEmptyRepo(err) {
		logger.Debug("github: %s has no commits", repo.GetFullName())
		return nil
	}
	if err != nil {
		return fmt.Errorf("get tree %s: %w", repo.GetFullName(), err)
	}
	if tree.GetTruncated() {
		logger.Warn("github: tree for %s is truncated, some files are skipped", repo.GetFullName())
	}

	var blobs []*gh.TreeEntry
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" && matchesPatterns(entry.GetPath(), c.config.FilePatterns) {
			blobs = append(blobs, entry)
		}
	}
	return emitTree(em, repo, branch, buildTree(blobs))
}

// treeNode is a directory of matching blobs. Children keep path order.
type treeNode struct {
	prefix   string
	entry    *gh.TreeEntry
	children []*treeNode
	dirs     map[string]*treeNode
}

// buildTree groups blobs by directory. Blobs are sorted by path first so
// every directory's contents are contiguous.
func buildTree(blobs []*gh.TreeEntry) *treeNode {
	slices.SortFunc(blobs, func(a, b *gh.TreeEntry) int {
		return strings.Compare(a.GetPath(), b.GetPath())
	})

	root := &treeNode{}
	for _, entry := range blobs {
		node := root
		dir := path.Dir(entry.GetPath())
		if dir != "." {
			prefix := ""
			for _, part := range strings.Split(dir, "/") {
				prefix = path.Join(prefix, part)
				node = node.dir(prefix)
			}
		}
		node.children = append(node.children, &treeNode{prefix: entry.GetPath(), entry: entry})
	}
	return root
}

func (n *treeNode) dir(prefix string) *treeNode {
	if child, ok := n.dirs[prefix]; ok {
		return child
	}
	if n.dirs == nil {
		n.dirs = map[string]*treeNode{}
	}
	child := &treeNode{prefix: prefix}
	n.dirs[prefix] = child
	n.children = append(n.children, child)
	return child
}

func emitTree(em *extract.Emitter, repo *gh.Repository, branch string, node *treeNode) error {
	for _, child := range node.children {
		if child.entry != nil {
			if err := em.Emit(fileEntity(repo, branch, child.entry)); err != nil {
				return err
			}
			continue
		}

		d := directoryEntity(repo, branch, child.prefix)
		if err := em.Emit(d); err != nil {
			return err
		}
		err := em.Descend(d.Crumb(), func() error {
			return emitTree(em, repo, branch, child)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func directoryEntity(repo *gh.Repository, branch, prefix string) *domain.ChunkEntity {
	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID: repo.GetFullName() + ":" + prefix + "/",
			Type:     "directory",
			Name:     path.Base(prefix),
			URL:      fmt.Sprintf("%s/tree/%s/%s", strings.TrimSuffix(repo.GetHTMLURL(), "/"), branch, prefix),
			Attributes: map[string]any{
				"path":   prefix,
				"branch": branch,
			},
		},
	}
}

// isEmptyRepo matches the 409 GitHub returns for trees of empty repositories.
func isEmptyRepo(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

func fileEntity(repo *gh.Repository, branch string, entry *gh.TreeEntry) *domain.FileEntity {
	owner, name, full := repo.GetOwner().GetLogin(), repo.GetName(), repo.GetFullName()
	p := entry.GetPath()

	var size *int64
	if entry.Size != nil {
		n := int64(*entry.Size)
		size = &n
	}

	return &domain.FileEntity{
		BaseEntity: domain.BaseEntity{
			EntityID: full + ":" + p,
			Type:     "file",
			Name:     p,
			URL:      fmt.Sprintf("%s/blob/%s/%s", strings.TrimSuffix(repo.GetHTMLURL(), "/"), branch, p),
			Attributes: map[string]any{
				"path":   p,
				"branch": branch,
				"sha":    entry.GetSHA(),
			},
		},
		FileID:   entry.GetSHA(),
		FileName: path.Base(p),
		MIMEType: detectFileMIMEType(p),
		Size:     size,
		Location: blobLocation(owner, name, entry.GetSHA()),
	}
}

// extMIMETypes maps file extensions to MIME types for common types not in Go's registry.
var extMIMETypes = map[string]string{
	".md": "text/markdown", ".markdown": "text/markdown",
	".go": "text/x-go", ".py": "text/x-python", ".rs": "text/x-rust",
	".ts": "text/typescript", ".tsx": "text/typescript-jsx", ".jsx": "text/javascript-jsx",
	".yaml": "text/yaml", ".yml": "text/yaml", ".toml": "text/toml",
	".sh": "text/x-shellscript", ".sql": "text/x-sql", ".rb": "text/x-ruby",
	".java": "text/x-java", ".kt": "text/x-kotlin", ".swift": "text/x-swift",
}

// detectFileMIMEType determines the MIME type from the file extension.
// Unknown extensions report no type; the declared type is optional.
func detectFileMIMEType(p string) string {
	ext := strings.ToLower(filepath.Ext(p))
	if ext == "" {
		return ""
	}
	// Checked first: Go's registry reports video/mp2t for .ts.
	if t, ok := extMIMETypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	return ""
}

// matchesPatterns checks if a path matches any of the glob patterns, either
// by base name or by full path.
func matchesPatterns(p string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, path.Base(p)); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}
