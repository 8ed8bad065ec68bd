// Package extracttest provides fakes for testing producers and connectors
// without the network or the wall clock.
//
// This package includes:
//   - RecordingTimer, a backoff timer that fires immediately
//   - ScriptedPages, a pagination step that replays canned pages
//   - FlakyOpener, a stream opener that fails a set number of times
//   - Collect, which drains an entity sequence
//   - Orphans, which finds breadcrumbs to entities not emitted before
package extracttest

import (
	"context"
	"io"
	"iter"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// RecordingTimer fires immediately and records each requested delay.
type RecordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

// NewRecordingTimer creates a RecordingTimer.
func NewRecordingTimer() *RecordingTimer {
	return &RecordingTimer{c: make(chan time.Time, 1)}
}

// Start records d and fires.
func (t *RecordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	t.c <- time.Time{}
}

// Stop is a no-op.
func (t *RecordingTimer) Stop() {}

// C returns the fire channel.
func (t *RecordingTimer) C() <-chan time.Time { return t.c }

// Delays returns the recorded delays in order.
func (t *RecordingTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]time.Duration, len(t.delays))
	copy(out, t.delays)
	return out
}

// Policy returns the default policy driven by a fresh RecordingTimer.
func Policy() (extract.Policy, *RecordingTimer) {
	timer := NewRecordingTimer()
	p := extract.DefaultPolicy()
	p.Timer = timer
	return p, timer
}

// ScriptedPages replays Pages as a string-cursor step. Page i is returned
// for the i-th call; its Next is "p<i+1>" except on the last page.
type ScriptedPages[T any] struct {
	Pages [][]T
	// Err, when set, is returned instead of the page at index FailAt.
	Err    error
	FailAt int

	mu      sync.Mutex
	cursors []string
}

// Step implements extract.Step.
func (s *ScriptedPages[T]) Step(_ context.Context, cursor string) (extract.Page[T, string], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.cursors)
	s.cursors = append(s.cursors, cursor)
	if s.Err != nil && idx == s.FailAt {
		return extract.Page[T, string]{}, s.Err
	}
	if idx >= len(s.Pages) {
		return extract.Page[T, string]{}, nil
	}

	page := extract.Page[T, string]{Items: s.Pages[idx]}
	if idx < len(s.Pages)-1 {
		page.Next = "p" + strconv.Itoa(idx+1)
		page.HasNext = true
	}
	return page, nil
}

// Calls returns the cursors each fetch was made with.
func (s *ScriptedPages[T]) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.cursors))
	copy(out, s.cursors)
	return out
}

// TrackingBody is a ReadCloser that records Close.
type TrackingBody struct {
	io.Reader
	mu     sync.Mutex
	closed bool
}

// Close marks the body closed.
func (b *TrackingBody) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (b *TrackingBody) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// FlakyOpener fails the first Failures opens with Err, then serves Payload.
type FlakyOpener struct {
	Payload  string
	Failures int
	Err      error

	mu     sync.Mutex
	opens  int
	bodies []*TrackingBody
}

// Open implements extract.StreamOpener.
func (o *FlakyOpener) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if o.opens <= o.Failures {
		return nil, o.Err
	}
	body := &TrackingBody{Reader: strings.NewReader(o.Payload)}
	o.bodies = append(o.bodies, body)
	return body, nil
}

// Opens returns the number of open attempts.
func (o *FlakyOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// AllClosed reports whether every served body was closed.
func (o *FlakyOpener) AllClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, b := range o.bodies {
		if !b.Closed() {
			return false
		}
	}
	return true
}

// Collect drains seq, returning the entities before the first error and
// that error.
func Collect(seq iter.Seq2[domain.Entity, error]) ([]domain.Entity, error) {
	var out []domain.Entity
	for e, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// IDs returns the entity IDs of entities in order.
func IDs(entities []domain.Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.Base().EntityID
	}
	return ids
}

// Orphans returns the breadcrumbs that do not reference an entity emitted
// earlier in entities.
func Orphans(entities []domain.Entity) []domain.Breadcrumb {
	seen := map[string]bool{}
	var out []domain.Breadcrumb
	for _, e := range entities {
		for _, b := range e.Base().Breadcrumbs {
			if !seen[b.EntityID] {
				out = append(out, b)
			}
		}
		seen[e.Base().EntityID] = true
	}
	return out
}
