package drive

import (
	"context"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// produceFolders walks every configured folder depth-first. A file with
// several parents is emitted under the first folder that reaches it.
func (c *Connector) produceFolders(ctx context.Context, em *extract.Emitter) error {
	seen := make(map[string]bool)
	for _, id := range c.config.FolderIDs {
		folder, err := c.client.GetFile(ctx, id)
		if err != nil {
			return err
		}
		if err := c.walk(ctx, em, folder, seen); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connector) walk(ctx context.Context, em *extract.Emitter, folder *drive.File, seen map[string]bool) error {
	if seen[folder.Id] {
		return nil
	}
	seen[folder.Id] = true

	entity, err := folderEntity(folder)
	if err != nil {
		return err
	}
	if err := em.Emit(entity); err != nil {
		return err
	}

	return em.Descend(entity.Crumb(), func() error {
		return extract.Each(c.client.Children(ctx, folder.Id), func(f *drive.File) error {
			if f.MimeType == MimeTypeFolder {
				return c.walk(ctx, em, f, seen)
			}
			if seen[f.Id] || !ShouldSyncFile(f, c.config) {
				return nil
			}
			seen[f.Id] = true
			return c.emitFile(em, f)
		})
	})
}

func (c *Connector) emitFile(em *extract.Emitter, f *drive.File) error {
	location, err := c.client.ContentLocation(f.Id, exportMIME(f.MimeType))
	if err != nil {
		return err
	}
	entity, err := fileEntity(f, location)
	if err != nil {
		return err
	}
	logger.Debug("drive: file %s (%s)", f.Name, f.MimeType)
	return em.Emit(entity)
}
