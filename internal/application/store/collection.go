package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// State represents the lifecycle state of a collection.
type State string

const (
	StateEmpty   State = "empty"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// FetchFunc fetches the full server-side collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Collection owns one server-backed collection and keeps it consistent with
// the server by full reload after every mutation. There is no optimistic
// local patching: a failed write leaves the exposed collection untouched, a
// failed reload retains the previous items.
//
// Reloads are sequence-numbered: a response belonging to a request issued
// before the most recently issued one is discarded, so overlapping
// mutate+reload pairs cannot clobber fresher state. Clear bumps the sequence
// too, which guarantees in-flight results from a previous session are never
// applied after the session ends.
type Collection[T any] struct {
	name  string
	log   *zap.Logger
	fetch FetchFunc[T]

	mu      sync.Mutex
	items   []T
	state   State
	issued  uint64 // sequence of the most recently issued load
	applied uint64 // sequence of the load whose result is currently applied
}

// NewCollection creates an empty collection backed by the given fetch.
func NewCollection[T any](name string, fetch FetchFunc[T], log *zap.Logger) *Collection[T] {
	return &Collection[T]{
		name:  name,
		log:   log.Named(name),
		fetch: fetch,
		state: StateEmpty,
	}
}

// State returns the current lifecycle state.
func (c *Collection[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns a copy of the current collection.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the current collection size.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Load fetches the full collection and replaces the local one wholesale.
// On failure the previous items are left intact and the error is surfaced to
// the caller; the store remains usable.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.state = StateLoading
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issued {
		// A newer load was issued while this one was in flight; its
		// completion owns the state. Drop this result.
		c.log.Debug("discarding stale reload", zap.Uint64("seq", seq), zap.Uint64("newest", c.issued))
		return nil
	}

	if err != nil {
		// Settle to the last applied result rather than a transient Loading
		// captured from an older overlapping request, so nothing spins with
		// no request in flight.
		if c.applied > 0 {
			c.state = StateReady
		} else {
			c.state = StateEmpty
		}
		c.log.Warn("load failed, previous collection retained", zap.Error(err))
		return err
	}

	c.items = items
	c.applied = seq
	c.state = StateReady
	return nil
}

// Mutate issues exactly one write call and, on success, reloads the
// collection to resynchronize with the server. No speculative local change is
// applied before server confirmation; a rejected write leaves the collection
// exactly as it was.
func (c *Collection[T]) Mutate(ctx context.Context, write func(ctx context.Context) error) error {
	if err := write(ctx); err != nil {
		return err
	}
	return c.Load(ctx)
}

// Clear resets the collection to the empty state. It invalidates any
// in-flight load so a result produced under the previous session can never
// be applied.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.items = nil
	c.applied = 0
	c.state = StateEmpty
}
