package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/extract/extracttest"
)

func chunk(id, typ string) *domain.ChunkEntity {
	return &domain.ChunkEntity{BaseEntity: domain.BaseEntity{EntityID: id, Name: id, Type: typ}}
}

func emitAll(ids ...string) extract.Producer {
	return extract.Producer{
		Name: "static",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			for _, id := range ids {
				if err := em.Emit(chunk(id, "item")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func TestProduce_ParentBeforeChild(t *testing.T) {
	parent := chunk("P", "project")
	children := extract.Producer{
		Name: "tasks",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			if err := em.Emit(chunk("C1", "task")); err != nil {
				return err
			}
			return em.Emit(chunk("C2", "task"))
		},
	}
	o := &extract.Orchestrator{
		SourceID: "src-1",
		Producers: []extract.Producer{{
			Name: "projects",
			Run: func(ctx context.Context, em *extract.Emitter) error {
				if err := em.Emit(parent); err != nil {
					return err
				}
				return em.Descend(parent.Crumb(), func() error {
					return children.Run(ctx, em)
				})
			},
		}},
	}

	got, err := extracttest.Collect(o.Produce(context.Background()))

	require.NoError(t, err)
	assert.Equal(t, []string{"P", "C1", "C2"}, extracttest.IDs(got))
	assert.Empty(t, got[0].Base().Breadcrumbs)
	for _, c := range got[1:] {
		assert.Equal(t, []domain.Breadcrumb{parent.Crumb()}, c.Base().Breadcrumbs)
		assert.Equal(t, "src-1", c.Base().SourceID)
	}
}

func TestProduce_DeclarationOrder(t *testing.T) {
	o := &extract.Orchestrator{Producers: []extract.Producer{
		emitAll("a1", "a2"),
		emitAll("b1"),
		emitAll(),
		emitAll("c1"),
	}}

	got, err := extracttest.Collect(o.Produce(context.Background()))

	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1", "c1"}, extracttest.IDs(got))
}

func TestProduce_EarlyStopSkipsSecondPage(t *testing.T) {
	pages := &extracttest.ScriptedPages[string]{Pages: [][]string{{"i1", "i2"}, {"i3"}}}
	later := 0
	o := &extract.Orchestrator{Producers: []extract.Producer{
		{
			Name: "issues",
			Run: func(ctx context.Context, em *extract.Emitter) error {
				return extract.Each(extract.Paginate(ctx, "", pages.Step), func(id string) error {
					return em.Emit(chunk(id, "issue"))
				})
			},
		},
		{
			Name: "later",
			Run: func(ctx context.Context, em *extract.Emitter) error {
				later++
				return nil
			},
		},
	}}

	var seen []string
	for e, err := range o.Produce(context.Background()) {
		require.NoError(t, err)
		seen = append(seen, e.Base().EntityID)
		break
	}

	assert.Equal(t, []string{"i1"}, seen)
	assert.Len(t, pages.Calls(), 1)
	assert.Zero(t, later)
}

func TestProduce_EarlyStopLeavesNoOpenStream(t *testing.T) {
	policy, _ := extracttest.Policy()
	opener := &extracttest.FlakyOpener{Payload: "0123456789abcdef"}
	o := &extract.Orchestrator{
		Relay: extract.NewRelay(opener.Open, policy, extract.WithChunkSize(4)),
		Producers: []extract.Producer{{
			Name: "files",
			Run: func(ctx context.Context, em *extract.Emitter) error {
				for _, id := range []string{"f1", "f2"} {
					f := &domain.FileEntity{
						BaseEntity: domain.BaseEntity{EntityID: id, Type: "file"},
						FileID:     id,
						Location:   "mem://" + id,
					}
					if err := em.Emit(f); err != nil {
						return err
					}
				}
				return nil
			},
		}},
	}

	for e, err := range o.Produce(context.Background()) {
		require.NoError(t, err)
		f, ok := e.(*domain.FileEntity)
		require.True(t, ok)
		require.NotNil(t, f.Content)
		for _, cerr := range f.Content {
			require.NoError(t, cerr)
			break
		}
		break
	}

	assert.Equal(t, 1, opener.Opens())
	assert.True(t, opener.AllClosed())
}

func TestProduce_ProducerErrorIsFinalAndUnchanged(t *testing.T) {
	boom := &extract.StatusError{StatusCode: 401}
	second := 0
	o := &extract.Orchestrator{Producers: []extract.Producer{
		{
			Name: "first",
			Run: func(ctx context.Context, em *extract.Emitter) error {
				if err := em.Emit(chunk("a", "item")); err != nil {
					return err
				}
				return boom
			},
		},
		{
			Name: "second",
			Run: func(ctx context.Context, em *extract.Emitter) error {
				second++
				return nil
			},
		},
	}}

	var ids []string
	var errs []error
	for e, err := range o.Produce(context.Background()) {
		if err != nil {
			assert.Nil(t, e)
			errs = append(errs, err)
			continue
		}
		ids = append(ids, e.Base().EntityID)
	}

	assert.Equal(t, []string{"a"}, ids)
	require.Len(t, errs, 1)
	assert.Same(t, boom, errs[0])
	assert.Zero(t, second)
}

func TestProduce_EmptyIdentityFails(t *testing.T) {
	o := &extract.Orchestrator{Producers: []extract.Producer{emitAll("ok", "")}}

	got, err := extracttest.Collect(o.Produce(context.Background()))

	assert.ErrorIs(t, err, domain.ErrEmptyEntityID)
	assert.Equal(t, []string{"ok"}, extracttest.IDs(got))
}

func TestProduce_UnbalancedScopeFails(t *testing.T) {
	o := &extract.Orchestrator{Producers: []extract.Producer{{
		Name: "leaky",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			em.Tracker().Push(domain.Breadcrumb{EntityID: "x", Type: "folder"})
			return nil
		},
	}}}

	_, err := extracttest.Collect(o.Produce(context.Background()))

	assert.ErrorIs(t, err, extract.ErrAncestryViolation)
}

func TestProduce_OutOfOrderReleaseFails(t *testing.T) {
	o := &extract.Orchestrator{Producers: []extract.Producer{{
		Name: "tangled",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			outer := em.Tracker().Push(domain.Breadcrumb{EntityID: "o", Type: "folder"})
			em.Tracker().Push(domain.Breadcrumb{EntityID: "i", Type: "folder"})
			outer.Release()
			return nil
		},
	}}}

	_, err := extracttest.Collect(o.Produce(context.Background()))

	assert.ErrorIs(t, err, extract.ErrAncestryViolation)
}

func TestEmit_AfterStopNeverYields(t *testing.T) {
	var results []error
	o := &extract.Orchestrator{Producers: []extract.Producer{{
		Name: "stubborn",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			for _, id := range []string{"a", "b", "c"} {
				results = append(results, em.Emit(chunk(id, "item")))
			}
			return nil
		},
	}}}

	count := 0
	for range o.Produce(context.Background()) {
		count++
		break
	}

	assert.Equal(t, 1, count)
	require.Len(t, results, 3)
	assert.ErrorIs(t, results[0], extract.ErrStopped)
	assert.ErrorIs(t, results[1], extract.ErrStopped)
	assert.ErrorIs(t, results[2], extract.ErrStopped)
}

func TestEmit_KeepsExplicitBreadcrumbs(t *testing.T) {
	explicit := []domain.Breadcrumb{{EntityID: "root", Name: "/", Type: "folder"}}
	o := &extract.Orchestrator{Producers: []extract.Producer{{
		Name: "paths",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			e := chunk("a", "file")
			e.Breadcrumbs = explicit
			return em.Emit(e)
		},
	}}}

	got, err := extracttest.Collect(o.Produce(context.Background()))

	require.NoError(t, err)
	assert.Equal(t, explicit, got[0].Base().Breadcrumbs)
}

func TestDescend_ReleasesOnError(t *testing.T) {
	boom := errors.New("boom")
	depth := -1
	o := &extract.Orchestrator{Producers: []extract.Producer{{
		Name: "failing",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			err := em.Descend(domain.Breadcrumb{EntityID: "p", Type: "project"}, func() error {
				return boom
			})
			depth = em.Tracker().Depth()
			return err
		},
	}}}

	_, err := extracttest.Collect(o.Produce(context.Background()))

	assert.Same(t, boom, err)
	assert.Zero(t, depth)
}

func TestProduce_CancelledContextBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	o := &extract.Orchestrator{Producers: []extract.Producer{{
		Name: "never",
		Run: func(ctx context.Context, em *extract.Emitter) error {
			ran = true
			return nil
		},
	}}}

	_, err := extracttest.Collect(o.Produce(ctx))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}
