package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrCursorStalled is returned when a source hands back the cursor it was
// just called with, which would otherwise loop forever.
var ErrCursorStalled = errors.New("pagination cursor did not advance")

// Page is one fetched page of items.
type Page[T any, C comparable] struct {
	Items []T
	// Next is the cursor for the following page.
	Next C
	// HasNext is false on the final page. A zero Next also ends the sequence.
	HasNext bool
}

// Step fetches the page addressed by cursor. The first call receives the
// cursor passed to Paginate, usually the zero value.
type Step[T any, C comparable] func(ctx context.Context, cursor C) (Page[T, C], error)

// Paginate yields every item of every page in page order. A page is fetched
// only once the consumer has pulled all items of the previous one, and no
// page is fetched after the consumer stops.
//
// A step error is yielded once and ends the sequence.
func Paginate[T any, C comparable](ctx context.Context, first C, step Step[T, C]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		var none C
		cursor := first
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			p, err := step(ctx, cursor)
			if err != nil {
				yield(zero, err)
				return
			}

			for _, item := range p.Items {
				if !yield(item, nil) {
					return
				}
			}

			if !p.HasNext || p.Next == none {
				return
			}
			if p.Next == cursor {
				yield(zero, fmt.Errorf("page %d: %w", page, ErrCursorStalled))
				return
			}
			cursor = p.Next
		}
	}
}

// OffsetStep adapts an offset/limit API to a Step keyed by offset. A short
// page ends the sequence.
func OffsetStep[T any](limit int, fetch func(ctx context.Context, offset, limit int) ([]T, error)) Step[T, int] {
	return func(ctx context.Context, offset int) (Page[T, int], error) {
		items, err := fetch(ctx, offset, limit)
		if err != nil {
			return Page[T, int]{}, err
		}
		next := offset + len(items)
		return Page[T, int]{
			Items:   items,
			Next:    next,
			HasNext: limit > 0 && len(items) == limit,
		}, nil
	}
}

// Each calls fn for every item in seq, stopping at the first error from
// either side.
func Each[T any](seq iter.Seq2[T, error], fn func(T) error) error {
	for item, err := range seq {
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}
