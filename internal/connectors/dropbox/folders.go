package dropbox

import (
	"context"
	"fmt"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// produceFolders walks each configured path depth-first.
func (c *Connector) produceFolders(ctx context.Context, em *extract.Emitter) error {
	for _, p := range c.config.Paths {
		if p == "" {
			if err := c.walkChildren(ctx, em, ""); err != nil {
				return err
			}
			continue
		}

		md, err := c.client.GetMetadata(ctx, p)
		if err != nil {
			return err
		}
		switch m := md.(type) {
		case *files.FolderMetadata:
			if err := c.walk(ctx, em, m); err != nil {
				return err
			}
		case *files.FileMetadata:
			if err := c.emitFile(em, m); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: dropbox path %q is not a file or folder", domain.ErrNotFound, p)
		}
	}
	return nil
}

func (c *Connector) walk(ctx context.Context, em *extract.Emitter, folder *files.FolderMetadata) error {
	entity := folderEntity(folder)
	if err := em.Emit(entity); err != nil {
		return err
	}
	return em.Descend(entity.Crumb(), func() error {
		return c.walkChildren(ctx, em, folder.PathLower)
	})
}

func (c *Connector) walkChildren(ctx context.Context, em *extract.Emitter, p string) error {
	return extract.Each(c.client.Entries(ctx, p), func(md files.IsMetadata) error {
		switch m := md.(type) {
		case *files.FolderMetadata:
			return c.walk(ctx, em, m)
		case *files.FileMetadata:
			return c.emitFile(em, m)
		default:
			logger.Debug("dropbox: skipping %T in %q", md, p)
			return nil
		}
	})
}

func (c *Connector) emitFile(em *extract.Emitter, f *files.FileMetadata) error {
	if !c.config.wantFile(f.Name) {
		return nil
	}
	return em.Emit(fileEntity(f))
}
