package notion

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jomei/notionapi"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// Entity type tags.
const (
	TypePage     = "page"
	TypeDatabase = "database"
	TypeBlock    = "block"
	TypeFile     = "file"
)

// fileBlockTypes carry a downloadable payload.
var fileBlockTypes = map[string]bool{
	"file":  true,
	"pdf":   true,
	"image": true,
	"audio": true,
	"video": true,
}

type richText struct {
	PlainText string `json:"plain_text"`
}

func plainText(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

// block is the subset of a block the connector reads. Blocks are decoded
// from their JSON form so every block type shares one code path.
type block struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	HasChildren    bool   `json:"has_children"`
	CreatedTime    string `json:"created_time"`
	LastEditedTime string `json:"last_edited_time"`

	payload blockPayload
}

type blockPayload struct {
	RichText []richText `json:"rich_text"`
	Caption  []richText `json:"caption"`
	Title    string     `json:"title"`
	Language string     `json:"language"`
	Checked  *bool      `json:"checked"`
	URL      string     `json:"url"`
	Name     string     `json:"name"`
	File     *struct {
		URL string `json:"url"`
	} `json:"file"`
	External *struct {
		URL string `json:"url"`
	} `json:"external"`
}

func decodeBlock(b notionapi.Block) (*block, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("notion: encode block: %w", err)
	}
	var out block
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("notion: decode block: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("notion: decode block: %w", err)
	}
	if p, ok := fields[out.Type]; ok && len(p) > 0 && string(p) != "null" {
		if err := json.Unmarshal(p, &out.payload); err != nil {
			return nil, fmt.Errorf("notion: decode %s block %s: %w", out.Type, out.ID, err)
		}
	}
	return &out, nil
}

// text renders the block's readable content.
func (b *block) text() string {
	t := plainText(b.payload.RichText)
	switch b.Type {
	case "to_do":
		mark := "[ ] "
		if b.payload.Checked != nil && *b.payload.Checked {
			mark = "[x] "
		}
		return mark + t
	case "bookmark", "embed", "link_preview":
		if t == "" {
			return b.payload.URL
		}
	case "equation":
		return b.payload.Title
	}
	return t
}

// fileURL returns the payload URL of a file-like block.
func (b *block) fileURL() string {
	if b.payload.File != nil && b.payload.File.URL != "" {
		return b.payload.File.URL
	}
	if b.payload.External != nil {
		return b.payload.External.URL
	}
	return ""
}

func (b *block) base(typ, name string) (*domain.BaseEntity, error) {
	created, err := domain.ParseTimestamp(time.RFC3339, b.CreatedTime)
	if err != nil {
		return nil, err
	}
	edited, err := domain.ParseTimestamp(time.RFC3339, b.LastEditedTime)
	if err != nil {
		return nil, err
	}
	return &domain.BaseEntity{
		EntityID:   b.ID,
		Type:       typ,
		Name:       name,
		CreatedAt:  created,
		UpdatedAt:  edited,
		Attributes: map[string]any{"block_type": b.Type},
	}, nil
}

// blockEntity maps a text block, or returns nil when it has no text.
func blockEntity(b *block) (*domain.ChunkEntity, error) {
	text := b.text()
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	base, err := b.base(TypeBlock, truncate(text, 80))
	if err != nil {
		return nil, err
	}
	if b.payload.Language != "" {
		base.Attributes["language"] = b.payload.Language
	}
	return &domain.ChunkEntity{BaseEntity: *base, Content: text}, nil
}

// fileEntity maps a file-like block, or returns nil when it has no URL.
func fileEntity(b *block) (*domain.FileEntity, error) {
	location := b.fileURL()
	if location == "" {
		return nil, nil
	}
	name := b.payload.Name
	if name == "" {
		name = fileNameFromURL(location)
	}
	base, err := b.base(TypeFile, name)
	if err != nil {
		return nil, err
	}
	if caption := plainText(b.payload.Caption); caption != "" {
		base.Attributes["caption"] = caption
	}
	return &domain.FileEntity{
		BaseEntity: *base,
		FileID:     b.ID,
		FileName:   name,
		Location:   location,
	}, nil
}

// childPageEntity maps a child_page block to the page it links.
func childPageEntity(b *block) (*domain.ChunkEntity, error) {
	base, err := b.base(TypePage, b.payload.Title)
	if err != nil {
		return nil, err
	}
	base.URL = pageURL(b.ID)
	return &domain.ChunkEntity{BaseEntity: *base, Content: b.payload.Title}, nil
}

// childDatabaseEntity maps a child_database block to its database.
func childDatabaseEntity(b *block) (*domain.ChunkEntity, error) {
	base, err := b.base(TypeDatabase, b.payload.Title)
	if err != nil {
		return nil, err
	}
	base.URL = pageURL(b.ID)
	return &domain.ChunkEntity{BaseEntity: *base, Content: b.payload.Title}, nil
}

func pageEntity(p *notionapi.Page) *domain.ChunkEntity {
	title := pageTitle(p)
	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:   string(p.ID),
			Type:       TypePage,
			Name:       title,
			CreatedAt:  domain.TimePtr(p.CreatedTime),
			UpdatedAt:  domain.TimePtr(p.LastEditedTime),
			URL:        p.URL,
			Attributes: map[string]any{"parent_type": string(p.Parent.Type)},
		},
		Content: title,
	}
}

func databaseEntity(d *notionapi.Database) *domain.ChunkEntity {
	title := plainText(convertRichText(d.Title))
	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:   string(d.ID),
			Type:       TypeDatabase,
			Name:       title,
			CreatedAt:  domain.TimePtr(d.CreatedTime),
			UpdatedAt:  domain.TimePtr(d.LastEditedTime),
			URL:        d.URL,
			Attributes: map[string]any{"parent_type": string(d.Parent.Type)},
		},
		Content: title,
	}
}

// pageTitle returns the plain text of the page's title property.
func pageTitle(p *notionapi.Page) string {
	raw, err := json.Marshal(p.Properties)
	if err != nil {
		return ""
	}
	var props map[string]json.RawMessage
	if err := json.Unmarshal(raw, &props); err != nil {
		return ""
	}
	for _, prop := range props {
		var title struct {
			Type  string     `json:"type"`
			Title []richText `json:"title"`
		}
		if json.Unmarshal(prop, &title) == nil && title.Type == "title" {
			return plainText(title.Title)
		}
	}
	return ""
}

func convertRichText(in []notionapi.RichText) []richText {
	out := make([]richText, len(in))
	for i, rt := range in {
		out[i] = richText{PlainText: rt.PlainText}
	}
	return out
}

// isWorkspaceLevel reports whether a search result is a walk root. Anything
// else is reached through its parent.
func isWorkspaceLevel(parent notionapi.Parent) bool {
	return string(parent.Type) == "workspace"
}

func pageURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}

func fileNameFromURL(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Path == "" {
		return "file"
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil || name == "" || name == "/" || name == "." {
		return "file"
	}
	return name
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
