package dropbox

import (
	"mime"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// Entity type tags.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
)

// webURL returns the dropbox.com page for a path, or the home page.
func webURL(pathDisplay string) string {
	if pathDisplay == "" {
		return "https://www.dropbox.com/home"
	}
	parts := strings.Split(strings.TrimPrefix(pathDisplay, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return "https://www.dropbox.com/home/" + strings.Join(parts, "/")
}

func folderEntity(f *files.FolderMetadata) *domain.ChunkEntity {
	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID: f.Id,
			Type:     TypeFolder,
			Name:     f.Name,
			URL:      webURL(f.PathDisplay),
			Attributes: map[string]any{
				"path": f.PathDisplay,
			},
		},
		Content: f.PathDisplay,
	}
}

func fileEntity(f *files.FileMetadata) *domain.FileEntity {
	size := int64(f.Size)
	attrs := map[string]any{
		"path": f.PathDisplay,
		"rev":  f.Rev,
	}
	if f.ContentHash != "" {
		attrs["content_hash"] = f.ContentHash
	}

	return &domain.FileEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:   f.Id,
			Type:       TypeFile,
			Name:       f.Name,
			CreatedAt:  domain.TimePtr(f.ClientModified),
			UpdatedAt:  domain.TimePtr(f.ServerModified),
			URL:        webURL(f.PathDisplay),
			Attributes: attrs,
		},
		FileID:   f.Id,
		FileName: f.Name,
		MIMEType: detectMIMEType(f.Name),
		Size:     &size,
		Location: f.Id,
	}
}

// detectMIMEType guesses from the extension, falling back to octet-stream.
func detectMIMEType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == ".md" || ext == ".markdown" {
		return "text/markdown"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	return "application/octet-stream"
}

// wantFile applies the extension filter.
func (c *Config) wantFile(name string) bool {
	if len(c.Extensions) == 0 {
		return true
	}
	return slices.Contains(c.Extensions, strings.ToLower(path.Ext(name)))
}
