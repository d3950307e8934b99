// Package journal records undo operations and events for a single engine
// call so the call can commit or revert as a unit.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/urbandao/urbandao/internal/domain"
)

// MaxDepth bounds how deeply subscribers may emit from inside HandleEvent.
const MaxDepth = 8

// Subscriber receives events synchronously while the emitting call is still
// open. A subscriber error reverts the whole call.
type Subscriber interface {
	Accepts(ev domain.Event) bool
	HandleEvent(ctx context.Context, j *Journal, ev domain.Event) error
}

// Journal is the undo log of one call. It is not safe for concurrent use;
// the core serializes calls.
type Journal struct {
	at          time.Time
	undo        []func()
	events      []domain.Event
	subscribers []Subscriber
	depth       int
}

// New opens a journal for a call executing at the given time.
func New(at time.Time, subscribers ...Subscriber) *Journal {
	return &Journal{at: at, subscribers: subscribers}
}

// Now is the execution time of the call.
func (j *Journal) Now() time.Time {
	return j.at
}

// OnRevert registers fn to run if the call reverts.
func (j *Journal) OnRevert(fn func()) {
	j.undo = append(j.undo, fn)
}

// Emit appends ev to the call's events and delivers it to matching
// subscribers.
func (j *Journal) Emit(ctx context.Context, ev domain.Event) error {
	if ev.At.IsZero() {
		ev.At = j.at
	}
	j.events = append(j.events, ev)

	if j.depth >= MaxDepth {
		return fmt.Errorf("%w: %s emitted at subscriber depth %d", domain.ErrInvalidState, ev.Type, j.depth)
	}
	j.depth++
	defer func() { j.depth-- }()

	for _, s := range j.subscribers {
		if !s.Accepts(ev) {
			continue
		}
		if err := s.HandleEvent(ctx, j, ev); err != nil {
			return err
		}
	}
	return nil
}

// Events returns the events emitted so far.
func (j *Journal) Events() []domain.Event {
	return j.events
}

// Len is the number of recorded undo operations.
func (j *Journal) Len() int {
	return len(j.undo)
}

// Revert undoes every recorded write in reverse order and drops the events.
func (j *Journal) Revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
	j.events = nil
}

// Set writes m[k] = v, restoring the previous entry on revert.
func Set[K comparable, V any](j *Journal, m map[K]V, k K, v V) {
	prev, had := m[k]
	j.OnRevert(func() {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
	m[k] = v
}

// Assign writes *p = v, restoring the previous value on revert.
func Assign[T any](j *Journal, p *T, v T) {
	prev := *p
	j.OnRevert(func() { *p = prev })
	*p = v
}

// Append appends v to *s, truncating it back on revert.
func Append[T any](j *Journal, s *[]T, v T) {
	n := len(*s)
	j.OnRevert(func() { *s = (*s)[:n] })
	*s = append(*s, v)
}
