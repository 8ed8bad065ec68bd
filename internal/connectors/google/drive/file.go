package drive

import (
	"slices"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	mimeTypeWorkspace    = "application/vnd.google-apps."
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// Entity type tags.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
)

// exportMIME returns the format a Workspace file is exported to, or "" for
// files that are downloaded as-is.
func exportMIME(mimeType string) string {
	switch mimeType {
	case MimeTypeGoogleDoc, MimeTypeGoogleSlides:
		return ExportMimeText
	case MimeTypeGoogleSheet:
		return ExportMimeCSV
	}
	return ""
}

// ShouldSyncFile checks if a non-folder file should be synced based on config.
func ShouldSyncFile(file *drive.File, cfg *Config) bool {
	if file.MimeType == MimeTypeFolder || file.Trashed {
		return false
	}

	if len(cfg.MimeTypeFilter) > 0 && !slices.Contains(cfg.MimeTypeFilter, file.MimeType) {
		return false
	}

	switch file.MimeType {
	case MimeTypeGoogleDoc, MimeTypeGoogleSlides:
		return cfg.HasContentType(ContentDocs)
	case MimeTypeGoogleSheet:
		return cfg.HasContentType(ContentSheets)
	}
	// Forms, maps, shortcuts and other Workspace types have no export.
	if strings.HasPrefix(file.MimeType, mimeTypeWorkspace) {
		return false
	}
	return cfg.HasContentType(ContentFiles)
}

// folderEntity maps a Drive folder to a chunk entity.
func folderEntity(f *drive.File) (*domain.ChunkEntity, error) {
	base, err := baseEntity(f, TypeFolder)
	if err != nil {
		return nil, err
	}
	return &domain.ChunkEntity{BaseEntity: *base, Content: f.Name}, nil
}

// fileEntity maps a Drive file to a file entity streamed from location.
func fileEntity(f *drive.File, location string) (*domain.FileEntity, error) {
	base, err := baseEntity(f, TypeFile)
	if err != nil {
		return nil, err
	}
	base.Attributes["mime_type"] = f.MimeType

	mimeType := f.MimeType
	var size *int64
	if export := exportMIME(f.MimeType); export != "" {
		mimeType = export
		base.Attributes["exported"] = true
	} else {
		n := f.Size
		size = &n
	}
	if f.Md5Checksum != "" {
		base.Attributes["md5"] = f.Md5Checksum
	}

	return &domain.FileEntity{
		BaseEntity: *base,
		FileID:     f.Id,
		FileName:   f.Name,
		MIMEType:   mimeType,
		Size:       size,
		Location:   location,
	}, nil
}

func baseEntity(f *drive.File, typ string) (*domain.BaseEntity, error) {
	created, err := domain.ParseTimestamp(time.RFC3339, f.CreatedTime)
	if err != nil {
		return nil, err
	}
	modified, err := domain.ParseTimestamp(time.RFC3339, f.ModifiedTime)
	if err != nil {
		return nil, err
	}
	return &domain.BaseEntity{
		EntityID:   f.Id,
		Type:       typ,
		Name:       f.Name,
		CreatedAt:  created,
		UpdatedAt:  modified,
		URL:        f.WebViewLink,
		Attributes: map[string]any{},
	}, nil
}
