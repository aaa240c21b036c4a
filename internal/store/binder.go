package store

import (
	"sync"

	"github.com/google/uuid"
)

// Component is a UI element that can be re-rendered.
type Component interface {
	Render()
}

// ComponentFunc adapts a func to Component.
type ComponentFunc func()

// Render calls f.
func (f ComponentFunc) Render() {
	f()
}

// Revisioned is implemented by selector results that carry their own
// revision. Two results with the same revision are considered unchanged
// without comparing their contents.
type Revisioned interface {
	Revision() uint64
}

// Connection binds one component to a store. A component renders at most
// once per dispatch, and only if one of its bindings changed.
type Connection[S any] struct {
	id        string
	store     *Store[S]
	component Component

	mu       sync.Mutex
	bindings []refresher[S]
	closed   bool
}

type refresher[S any] interface {
	refresh(state S) bool
}

// Connect registers component with the store.
func (s *Store[S]) Connect(component Component) *Connection[S] {
	c := &Connection[S]{
		id:        uuid.NewString(),
		store:     s,
		component: component,
	}
	s.connMu.Lock()
	s.conns = append(s.conns, c)
	s.connMu.Unlock()
	return c
}

// ID returns the connection id.
func (c *Connection[S]) ID() string {
	return c.id
}

// Store returns the store the connection belongs to.
func (c *Connection[S]) Store() *Store[S] {
	return c.store
}

// Close removes the connection and all its bindings from the store.
// Closing twice is a no-op.
func (c *Connection[S]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.bindings = nil
	c.mu.Unlock()

	s := c.store
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for i, other := range s.conns {
		if other == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			break
		}
	}
}

// Closed reports whether Close was called.
func (c *Connection[S]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Connection[S]) refresh(state S) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	changed := false
	for _, b := range c.bindings {
		if b.refresh(state) {
			changed = true
		}
	}
	c.mu.Unlock()

	if changed && c.component != nil {
		c.component.Render()
	}
	return changed
}

// Binding is a selector result tracked for one connection.
type Binding[T any] struct {
	mu       sync.RWMutex
	value    T
	updates  int
	isEqual  func(a, b T) bool
	onUpdate func(T)
}

// Option configures a Binding.
type Option[T any] func(*Binding[T])

// WithIsEqual replaces the default equality.
func WithIsEqual[T any](fn func(a, b T) bool) Option[T] {
	return func(b *Binding[T]) {
		b.isEqual = fn
	}
}

// WithEqualDepth compares results structurally down to depth levels of
// containers, then by identity.
func WithEqualDepth[T any](depth int) Option[T] {
	return func(b *Binding[T]) {
		b.isEqual = func(x, y T) bool { return EqualDepth(x, y, depth) }
	}
}

// WithOnUpdate registers a callback invoked with each changed result,
// before the component renders.
func WithOnUpdate[T any](fn func(T)) Option[T] {
	return func(b *Binding[T]) {
		b.onUpdate = fn
	}
}

// Bind evaluates selector against the current state and re-evaluates it
// after every dispatch. Results are compared by revision when both implement
// Revisioned, otherwise with the binding's equality (identity by default).
func Bind[S, T any](c *Connection[S], selector func(S) T, opts ...Option[T]) *Binding[T] {
	b := &Binding[T]{isEqual: StrictEqual[T]}
	for _, opt := range opts {
		opt(b)
	}
	b.value = selector(c.store.Snapshot())

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.bindings = append(c.bindings, &selection[S, T]{binding: b, selector: selector})
	}
	return b
}

// Value returns the latest selector result.
func (b *Binding[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Updates returns how many times the result changed since Bind.
func (b *Binding[T]) Updates() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updates
}

type selection[S, T any] struct {
	binding  *Binding[T]
	selector func(S) T
}

func (s *selection[S, T]) refresh(state S) bool {
	next := s.selector(state)
	b := s.binding

	b.mu.Lock()
	prev := b.value
	if !changed(prev, next, b.isEqual) {
		b.mu.Unlock()
		return false
	}
	b.value = next
	b.updates++
	onUpdate := b.onUpdate
	b.mu.Unlock()

	if onUpdate != nil {
		onUpdate(next)
	}
	return true
}

func changed[T any](prev, next T, isEqual func(a, b T) bool) bool {
	pr, okPrev := any(prev).(Revisioned)
	nr, okNext := any(next).(Revisioned)
	if okPrev && okNext {
		return pr.Revision() != nr.Revision()
	}
	return !isEqual(prev, next)
}
