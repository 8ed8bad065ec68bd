package notion

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// walker tracks visited pages and databases for one pass.
type walker struct {
	c    *Connector
	em   *extract.Emitter
	seen map[string]bool
}

// produceWorkspace walks every root page and database.
func (c *Connector) produceWorkspace(ctx context.Context, em *extract.Emitter) error {
	w := &walker{c: c, em: em, seen: make(map[string]bool)}

	if len(c.config.PageIDs) > 0 {
		for _, id := range c.config.PageIDs {
			p, err := c.client.GetPage(ctx, id)
			if err != nil {
				return err
			}
			if err := w.page(ctx, pageEntity(p)); err != nil {
				return err
			}
		}
		return nil
	}

	return extract.Each(c.client.SearchAll(ctx), func(obj notionapi.Object) error {
		switch o := obj.(type) {
		case *notionapi.Page:
			if isWorkspaceLevel(o.Parent) && !o.Archived {
				return w.page(ctx, pageEntity(o))
			}
		case *notionapi.Database:
			if isWorkspaceLevel(o.Parent) {
				return w.database(ctx, databaseEntity(o))
			}
		}
		return nil
	})
}

func (w *walker) visit(id string) bool {
	if w.seen[id] {
		return false
	}
	w.seen[id] = true
	return true
}

func (w *walker) page(ctx context.Context, e *domain.ChunkEntity) error {
	if !w.visit(e.EntityID) {
		return nil
	}
	if err := w.em.Emit(e); err != nil {
		return err
	}
	return w.em.Descend(e.Crumb(), func() error {
		return w.blocks(ctx, e.EntityID)
	})
}

func (w *walker) database(ctx context.Context, e *domain.ChunkEntity) error {
	if !w.visit(e.EntityID) {
		return nil
	}
	if err := w.em.Emit(e); err != nil {
		return err
	}
	return w.em.Descend(e.Crumb(), func() error {
		return extract.Each(w.c.client.Rows(ctx, e.EntityID), func(row notionapi.Page) error {
			return w.page(ctx, pageEntity(&row))
		})
	})
}

func (w *walker) blocks(ctx context.Context, parentID string) error {
	return extract.Each(w.c.client.Children(ctx, parentID), func(nb notionapi.Block) error {
		b, err := decodeBlock(nb)
		if err != nil {
			return err
		}

		switch {
		case b.Type == "child_page":
			e, err := childPageEntity(b)
			if err != nil {
				return err
			}
			return w.page(ctx, e)
		case b.Type == "child_database":
			e, err := childDatabaseEntity(b)
			if err != nil {
				return err
			}
			return w.database(ctx, e)
		case fileBlockTypes[b.Type]:
			e, err := fileEntity(b)
			if err != nil || e == nil {
				return err
			}
			return w.em.Emit(e)
		}

		e, err := blockEntity(b)
		if err != nil {
			return err
		}
		if e == nil {
			if b.HasChildren {
				return w.blocks(ctx, b.ID)
			}
			logger.Debug("notion: skipping empty %s block %s", b.Type, b.ID)
			return nil
		}
		if err := w.em.Emit(e); err != nil {
			return err
		}
		if !b.HasChildren {
			return nil
		}
		return w.em.Descend(e.Crumb(), func() error {
			return w.blocks(ctx, b.ID)
		})
	})
}
