package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// ErrStopped is returned by Emit once the consumer has stopped pulling.
// Producers return it (or any error wrapping it) to unwind.
var ErrStopped = errors.New("consumer stopped")

// Producer emits the entities of one upstream resource.
type Producer struct {
	Name string
	Run  func(ctx context.Context, em *Emitter) error
}

// Emitter hands entities from a producer to the consumer.
type Emitter struct {
	ctx      context.Context
	sourceID string
	tracker  *Tracker
	relay    *Relay
	metrics  *Metrics
	yield    func(domain.Entity, error) bool
	stopped  bool
}

// Emit stamps, validates and yields e. Entities without breadcrumbs receive
// the tracker's current ancestry. File entities without content are attached
// to the relay. Emit returns ErrStopped when the consumer has stopped, and
// never yields again after that.
func (em *Emitter) Emit(e domain.Entity) error {
	if em.stopped {
		return ErrStopped
	}
	if err := domain.Validate(e); err != nil {
		return err
	}

	base := e.Base()
	if base.Breadcrumbs == nil {
		em.tracker.Stamp(e)
	}
	base.SourceID = em.sourceID

	if f, ok := e.(*domain.FileEntity); ok && f.Content == nil && em.relay != nil {
		em.relay.Attach(em.ctx, f)
	}

	em.metrics.entity(em.sourceID, domain.Kind(e))
	if !em.yield(e, nil) {
		em.stopped = true
		return ErrStopped
	}
	return nil
}

// Descend runs fn with crumb pushed onto the ancestry. The scope is released
// when fn returns, including on error.
func (em *Emitter) Descend(crumb domain.Breadcrumb, fn func() error) error {
	scope := em.tracker.Push(crumb)
	defer scope.Release()
	return fn()
}

// Tracker returns the pass's ancestry tracker, for producers whose scopes do
// not nest as function calls.
func (em *Emitter) Tracker() *Tracker { return em.tracker }

// Orchestrator composes producers into one ordered entity sequence.
type Orchestrator struct {
	SourceID  string
	Producers []Producer
	Relay     *Relay
	Metrics   *Metrics
}

// Produce runs the producers in order on the consumer's goroutine. The first
// producer error is yielded unchanged as the final element. When the consumer
// stops early no further fetches are issued.
func (o *Orchestrator) Produce(ctx context.Context) iter.Seq2[domain.Entity, error] {
	return func(yield func(domain.Entity, error) bool) {
		em := &Emitter{
			ctx:      ctx,
			sourceID: o.SourceID,
			tracker:  NewTracker(),
			relay:    o.Relay,
			metrics:  o.Metrics,
			yield:    yield,
		}

		for _, p := range o.Producers {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			logger.Debug("producer %s: start", p.Name)
			err := run(ctx, p, em)
			if em.stopped {
				logger.Debug("producer %s: consumer stopped", p.Name)
				return
			}
			if err != nil {
				logger.Debug("producer %s: %v", p.Name, err)
				yield(nil, err)
				return
			}
			if depth := em.tracker.Depth(); depth != 0 {
				yield(nil, fmt.Errorf("%w: producer %s returned with %d open scopes",
					ErrAncestryViolation, p.Name, depth))
				return
			}
		}
	}
}

// run invokes a producer, turning an ancestry panic into an error.
func run(ctx context.Context, p Producer, em *Emitter) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if perr, ok := r.(error); ok && errors.Is(perr, ErrAncestryViolation) {
			err = perr
			return
		}
		panic(r)
	}()
	return p.Run(ctx, em)
}
