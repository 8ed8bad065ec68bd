package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure sinks implement the EntitySink interface.
var (
	_ driven.EntitySink = (*NDJSON)(nil)
	_ driven.EntitySink = (*Discard)(nil)
)

// Stats counts what a sink consumed.
type Stats struct {
	Entities int
	Files    int
	Bytes    int64
}

// record is the wire shape of one entity. Chunk and file fields share it;
// fields that do not apply to an entity's kind are omitted.
type record struct {
	Kind        string              `json:"kind"`
	EntityID    string              `json:"entity_id"`
	SourceID    string              `json:"source_id"`
	Type        string              `json:"type"`
	Name        string              `json:"name,omitempty"`
	Breadcrumbs []domain.Breadcrumb `json:"breadcrumbs"`
	CreatedAt   *time.Time          `json:"created_at,omitempty"`
	UpdatedAt   *time.Time          `json:"updated_at,omitempty"`
	URL         string              `json:"url,omitempty"`
	Attributes  map[string]any      `json:"attributes,omitempty"`

	Content string `json:"content,omitempty"`

	FileID        string `json:"file_id,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	MIMEType      string `json:"mime_type,omitempty"`
	Size          *int64 `json:"size,omitempty"`
	Location      string `json:"location,omitempty"`
	BytesStreamed *int64 `json:"bytes_streamed,omitempty"`
}

func newRecord(e domain.Entity) *record {
	b := e.Base()
	crumbs := b.Breadcrumbs
	if crumbs == nil {
		crumbs = []domain.Breadcrumb{}
	}
	return &record{
		Kind:        domain.Kind(e),
		EntityID:    b.EntityID,
		SourceID:    b.SourceID,
		Type:        b.Type,
		Name:        b.Name,
		Breadcrumbs: crumbs,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		URL:         b.URL,
		Attributes:  b.Attributes,
	}
}

// NDJSON writes newline-delimited JSON records. File content is streamed
// to completion before the record is written so bytes_streamed is known.
type NDJSON struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	stats  Stats
}

// NewNDJSON creates a sink writing to w. If w is an io.Closer it is
// closed by Close.
func NewNDJSON(w io.Writer) *NDJSON {
	s := &NDJSON{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Consume writes one record.
func (s *NDJSON) Consume(ctx context.Context, e domain.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var rec *record
	switch v := e.(type) {
	case *domain.FileEntity:
		n, err := drain(v)
		if err != nil {
			return fmt.Errorf("stream %s: %w", v.EntityID, err)
		}
		rec = newRecord(v)
		rec.FileID = v.FileID
		rec.FileName = v.FileName
		rec.MIMEType = v.MIMEType
		rec.Size = v.Size
		rec.Location = v.Location
		rec.BytesStreamed = &n
		s.count(true, n)
	case *domain.ChunkEntity:
		rec = newRecord(v)
		rec.Content = v.Content
		s.count(false, 0)
	default:
		return fmt.Errorf("%w: unknown entity shape %T", domain.ErrInvalidInput, e)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Base().EntityID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (s *NDJSON) count(file bool, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Entities++
	if file {
		s.stats.Files++
		s.stats.Bytes += n
	}
}

// Stats returns the counts so far.
func (s *NDJSON) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close flushes buffered records.
func (s *NDJSON) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// drain reads a file's content to the end and returns the byte count.
func drain(f *domain.FileEntity) (int64, error) {
	if f.Content == nil {
		return 0, nil
	}
	var n int64
	for chunk, err := range f.Content {
		if err != nil {
			return n, err
		}
		n += int64(len(chunk))
	}
	return n, nil
}

// Discard counts entities and drops them. File content is never opened.
type Discard struct {
	mu    sync.Mutex
	stats Stats
}

// NewDiscard creates a discarding sink.
func NewDiscard() *Discard {
	return &Discard{}
}

// Consume counts e.
func (s *Discard) Consume(ctx context.Context, e domain.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Entities++
	if _, ok := e.(*domain.FileEntity); ok {
		s.stats.Files++
	}
	return nil
}

// Stats returns the counts so far.
func (s *Discard) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close is a no-op.
func (s *Discard) Close() error {
	return nil
}
