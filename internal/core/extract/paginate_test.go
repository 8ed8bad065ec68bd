package extract_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/extract/extracttest"
)

func collect[T any](t *testing.T, seq func(func(T, error) bool)) ([]T, error) {
	t.Helper()
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}

func TestPaginate_YieldsEveryPageInOrder(t *testing.T) {
	pages := &extracttest.ScriptedPages[int]{Pages: [][]int{{1, 2}, {3, 4}, {5}}}

	got, err := collect[int](t, extract.Paginate(context.Background(), "", pages.Step))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Equal(t, []string{"", "p1", "p2"}, pages.Calls())
}

func TestPaginate_SinglePageWithoutCursor(t *testing.T) {
	pages := &extracttest.ScriptedPages[string]{Pages: [][]string{{"a", "b"}}}

	got, err := collect[string](t, extract.Paginate(context.Background(), "", pages.Step))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Len(t, pages.Calls(), 1)
}

func TestPaginate_ZeroNextEndsEvenWhenHasNext(t *testing.T) {
	calls := 0
	step := func(ctx context.Context, cursor string) (extract.Page[int, string], error) {
		calls++
		return extract.Page[int, string]{Items: []int{1}, HasNext: true}, nil
	}

	got, err := collect[int](t, extract.Paginate(context.Background(), "", step))

	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 1, calls)
}

func TestPaginate_EmptyPageWithCursorContinues(t *testing.T) {
	pages := &extracttest.ScriptedPages[int]{Pages: [][]int{{}, {}, {7}}}

	got, err := collect[int](t, extract.Paginate(context.Background(), "", pages.Step))

	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
	assert.Len(t, pages.Calls(), 3)
}

func TestPaginate_FetchesNextPageOnlyAfterDrain(t *testing.T) {
	var events []string
	step := func(ctx context.Context, cursor int) (extract.Page[int, int], error) {
		events = append(events, fmt.Sprintf("fetch %d", cursor))
		if cursor == 0 {
			return extract.Page[int, int]{Items: []int{1, 2}, Next: 1, HasNext: true}, nil
		}
		return extract.Page[int, int]{Items: []int{3}}, nil
	}

	for item, err := range extract.Paginate(context.Background(), 0, step) {
		require.NoError(t, err)
		events = append(events, fmt.Sprintf("item %d", item))
	}

	assert.Equal(t, []string{"fetch 0", "item 1", "item 2", "fetch 1", "item 3"}, events)
}

func TestPaginate_EarlyStopSkipsNextPage(t *testing.T) {
	pages := &extracttest.ScriptedPages[int]{Pages: [][]int{{1, 2}, {3, 4}}}

	for range extract.Paginate(context.Background(), "", pages.Step) {
		break
	}

	assert.Len(t, pages.Calls(), 1)
}

func TestPaginate_StepErrorEndsSequence(t *testing.T) {
	boom := errors.New("boom")
	pages := &extracttest.ScriptedPages[int]{
		Pages:  [][]int{{1}, {2}, {3}},
		Err:    boom,
		FailAt: 1,
	}

	got, err := collect[int](t, extract.Paginate(context.Background(), "", pages.Step))

	assert.Same(t, boom, err)
	assert.Equal(t, []int{1}, got)
	assert.Len(t, pages.Calls(), 2)
}

func TestPaginate_StalledCursor(t *testing.T) {
	calls := 0
	step := func(ctx context.Context, cursor string) (extract.Page[int, string], error) {
		calls++
		return extract.Page[int, string]{Items: []int{calls}, Next: "same", HasNext: true}, nil
	}

	got, err := collect[int](t, extract.Paginate(context.Background(), "", step))

	assert.ErrorIs(t, err, extract.ErrCursorStalled)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 2, calls)
}

func TestPaginate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pages := &extracttest.ScriptedPages[int]{Pages: [][]int{{1}}}

	_, err := collect[int](t, extract.Paginate(ctx, "", pages.Step))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pages.Calls())
}

func TestOffsetStep(t *testing.T) {
	data := []string{"a", "b", "c", "d", "e"}
	var offsets []int
	step := extract.OffsetStep(2, func(ctx context.Context, offset, limit int) ([]string, error) {
		offsets = append(offsets, offset)
		end := min(offset+limit, len(data))
		return data[offset:end], nil
	})

	got, err := collect[string](t, extract.Paginate(context.Background(), 0, step))

	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, []int{0, 2, 4}, offsets)
}

func TestOffsetStep_ExactMultipleFetchesEmptyTail(t *testing.T) {
	data := []int{1, 2, 3, 4}
	calls := 0
	step := extract.OffsetStep(2, func(ctx context.Context, offset, limit int) ([]int, error) {
		calls++
		end := min(offset+limit, len(data))
		return data[offset:end], nil
	})

	got, err := collect[int](t, extract.Paginate(context.Background(), 0, step))

	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, 3, calls)
}

func TestEach(t *testing.T) {
	pages := &extracttest.ScriptedPages[int]{Pages: [][]int{{1, 2}, {3}}}
	var seen []int

	err := extract.Each(extract.Paginate(context.Background(), "", pages.Step), func(n int) error {
		seen = append(seen, n)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestEach_CallbackErrorStops(t *testing.T) {
	pages := &extracttest.ScriptedPages[int]{Pages: [][]int{{1, 2}, {3}}}
	stop := errors.New("stop")

	err := extract.Each(extract.Paginate(context.Background(), "", pages.Step), func(n int) error {
		if n == 2 {
			return stop
		}
		return nil
	})

	assert.Same(t, stop, err)
	assert.Len(t, pages.Calls(), 1)
}
