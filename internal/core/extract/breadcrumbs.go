package extract

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// ErrAncestryViolation signals a breadcrumb scope released out of LIFO order
// or a producer that returned with scopes still open.
var ErrAncestryViolation = errors.New("ancestry discipline violated")

// Tracker is the stack of ancestor breadcrumbs for the producer currently
// running. It is not safe for concurrent use; producers run one at a time.
type Tracker struct {
	stack []domain.Breadcrumb
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Scope is the handle returned by Push.
type Scope struct {
	t        *Tracker
	depth    int
	crumb    domain.Breadcrumb
	released bool
}

// Push appends b to the ancestry and returns its scope.
func (t *Tracker) Push(b domain.Breadcrumb) *Scope {
	t.stack = append(t.stack, b)
	return &Scope{t: t, depth: len(t.stack), crumb: b}
}

// Current returns a root-first copy of the ancestry.
func (t *Tracker) Current() []domain.Breadcrumb {
	out := make([]domain.Breadcrumb, len(t.stack))
	copy(out, t.stack)
	return out
}

// Depth returns the number of open scopes.
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// Stamp copies the current ancestry onto e.
func (t *Tracker) Stamp(e domain.Entity) {
	e.Base().Breadcrumbs = t.Current()
}

// Release pops the scope's breadcrumb. Releasing twice is a no-op. Releasing
// a scope that is not on top of the stack panics with ErrAncestryViolation.
func (s *Scope) Release() {
	if s == nil || s.released {
		return
	}
	if len(s.t.stack) != s.depth {
		panic(fmt.Errorf("%w: release of %s at depth %d, stack depth %d",
			ErrAncestryViolation, s.crumb, s.depth, len(s.t.stack)))
	}
	s.t.stack = s.t.stack[:s.depth-1]
	s.released = true
}

// Breadcrumb returns the breadcrumb this scope pushed.
func (s *Scope) Breadcrumb() domain.Breadcrumb {
	return s.crumb
}
