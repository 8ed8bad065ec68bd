package domain

import (
	"fmt"
	"iter"
	"time"
)

// Breadcrumb is an immutable reference to an ancestor entity.
type Breadcrumb struct {
	// EntityID is the ancestor's source-local identifier.
	EntityID string `json:"entity_id"`

	// Name is the ancestor's display name.
	Name string `json:"name"`

	// Type is the ancestor's type tag (e.g., "repository", "folder").
	Type string `json:"type"`
}

// String returns a compact "type:name" representation.
func (b Breadcrumb) String() string {
	return b.Type + ":" + b.Name
}

// Entity is one normalised record produced by a connector.
// ChunkEntity and FileEntity are the two concrete shapes.
type Entity interface {
	// Base returns the fields shared by every entity shape.
	Base() *BaseEntity
}

// BaseEntity holds identity, ancestry and resource-specific attributes.
type BaseEntity struct {
	// EntityID is unique within the source namespace for its Type.
	EntityID string `json:"entity_id"`

	// SourceID links to the Source that produced this entity.
	SourceID string `json:"source_id"`

	// Type is the resource type tag (e.g., "issue", "file").
	Type string `json:"type"`

	// Name is the human-readable name of the record.
	Name string `json:"name,omitempty"`

	// Breadcrumbs is the root-first ancestry of the record.
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`

	// CreatedAt is when the upstream record was created, if known.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// UpdatedAt is when the upstream record was last modified, if known.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// URL is a web link to the upstream record.
	URL string `json:"url,omitempty"`

	// Attributes contains resource-specific key-value pairs.
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Base implements Entity.
func (b *BaseEntity) Base() *BaseEntity {
	return b
}

// Crumb returns a breadcrumb pointing at this entity.
func (b *BaseEntity) Crumb() Breadcrumb {
	return Breadcrumb{EntityID: b.EntityID, Name: b.Name, Type: b.Type}
}

// ChunkEntity is the default shape for text and record-like data.
type ChunkEntity struct {
	BaseEntity

	// Content is the embeddable text of the record.
	Content string `json:"content,omitempty"`
}

// FileEntity describes a binary payload that is streamed, never inlined.
type FileEntity struct {
	BaseEntity

	// FileID is the upstream file identifier.
	FileID string `json:"file_id"`

	// FileName is the display name of the file.
	FileName string `json:"file_name"`

	// MIMEType is the media type, when the source reports one.
	MIMEType string `json:"mime_type,omitempty"`

	// Size is the declared size in bytes. Advisory only.
	Size *int64 `json:"size,omitempty"`

	// Location is the URL or handle the content is streamed from.
	Location string `json:"location"`

	// Content streams the payload one chunk at a time.
	// Chunks are only valid until the next iteration step.
	Content iter.Seq2[[]byte, error] `json:"-"`
}

// Kind returns "file" for file entities and "chunk" otherwise.
func Kind(e Entity) string {
	if _, ok := e.(*FileEntity); ok {
		return "file"
	}
	return "chunk"
}

// Validate checks the identity invariants of an entity.
func Validate(e Entity) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", ErrInvalidInput)
	}
	base := e.Base()
	if base.EntityID == "" {
		return fmt.Errorf("%w: type %q", ErrEmptyEntityID, base.Type)
	}
	if f, ok := e.(*FileEntity); ok {
		if f.Location == "" {
			return fmt.Errorf("%w: %s", ErrMissingLocation, base.EntityID)
		}
	}
	return nil
}

// ParseTimestamp parses an upstream timestamp.
// Empty input yields nil; malformed input is a connector defect.
func ParseTimestamp(layout, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidTimestamp, value, err)
	}
	return &t, nil
}

// TimePtr returns a pointer to t, or nil for the zero time.
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
