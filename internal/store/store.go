// Package store provides a reactive state container with whitelisted
// mutations, registered getters and selector-based subscriptions.
//
// State is owned by the Store. The only write path is Dispatch, which runs a
// registered Mutation; the mutation writes through Tx.Update, which commits
// a modified copy atomically and bumps the store revision. Readers receive
// leases produced by the configured Clone func, so writing to a lease never
// reaches the store.
//
// After a mutation returns, every connected component is re-evaluated
// before Dispatch returns (see Bind).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/logger"
)

// Mutation is a named state transition. It may call out to the host
// (using ctx) and must write state only through tx.
type Mutation[S any] func(ctx context.Context, tx *Tx[S], args []any) error

// Getter is a pure read of state.
type Getter[S any] func(state S, args []any) (any, error)

// Observer receives store events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Dispatched is called once per Dispatch of a registered mutation.
	Dispatched(store, mutation string, elapsed time.Duration, err error)

	// Notified is called after each notification pass.
	Notified(store string, connections, renders int)
}

// Config configures a Store.
type Config[S any] struct {
	// Name identifies the store in logs and metrics.
	Name string

	// Clone copies state for leases and transactional updates. Substructure
	// that mutations replace rather than modify may be shared. Defaults to
	// plain assignment.
	Clone func(S) S

	// Observer is optional.
	Observer Observer
}

// Store is a reactive state container.
type Store[S any] struct {
	name     string
	clone    func(S) S
	observer Observer

	stateMu  sync.RWMutex
	state    S
	revision uint64

	regMu     sync.RWMutex
	mutations map[string]Mutation[S]
	getters   map[string]Getter[S]

	connMu   sync.Mutex
	conns    []*Connection[S]
	notifyMu sync.Mutex
}

// New creates a store holding initial.
func New[S any](initial S, cfg Config[S]) *Store[S] {
	clone := cfg.Clone
	if clone == nil {
		clone = func(s S) S { return s }
	}
	name := cfg.Name
	if name == "" {
		name = "store"
	}
	return &Store[S]{
		name:      name,
		clone:     clone,
		observer:  cfg.Observer,
		state:     initial,
		mutations: make(map[string]Mutation[S]),
		getters:   make(map[string]Getter[S]),
	}
}

// Name returns the store name.
func (s *Store[S]) Name() string {
	return s.name
}

// RegisterMutation allows name to be dispatched.
// Registering an existing name replaces it.
func (s *Store[S]) RegisterMutation(name string, m Mutation[S]) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.mutations[name] = m
}

// RegisterGetter allows name to be read through Get.
func (s *Store[S]) RegisterGetter(name string, g Getter[S]) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.getters[name] = g
}

// Mutations returns the registered mutation names, sorted.
func (s *Store[S]) Mutations() []string {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return sortedKeys(s.mutations)
}

// Getters returns the registered getter names, sorted.
func (s *Store[S]) Getters() []string {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return sortedKeys(s.getters)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named mutation. An unregistered name returns
// domain.ErrUnknownMutation before anything runs. If the mutation wrote
// state, connected components are re-evaluated before Dispatch returns,
// even when the mutation then failed.
func (s *Store[S]) Dispatch(ctx context.Context, name string, args ...any) error {
	s.regMu.RLock()
	m, ok := s.mutations[name]
	s.regMu.RUnlock()
	if !ok {
		return fmt.Errorf("dispatch %q: %w", name, domain.ErrUnknownMutation)
	}

	start := time.Now()
	tx := &Tx[S]{store: s}
	err := m(ctx, tx, args)
	if tx.writes > 0 {
		s.notify()
	}
	elapsed := time.Since(start)

	if s.observer != nil {
		s.observer.Dispatched(s.name, name, elapsed, err)
	}
	if err != nil {
		logger.Debug("%s: dispatch %s failed after %s: %v", s.name, name, elapsed, err)
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("%s: dispatch %s (%d writes, rev %d)", s.name, name, tx.writes, s.Revision())
	return nil
}

// Get evaluates the named getter against a lease of the current state.
func (s *Store[S]) Get(name string, args ...any) (any, error) {
	s.regMu.RLock()
	g, ok := s.getters[name]
	s.regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %q: %w", name, domain.ErrUnknownGetter)
	}
	return g(s.Snapshot(), args)
}

// GetAs evaluates a getter and asserts its result type.
func GetAs[T any, S any](s *Store[S], name string, args ...any) (T, error) {
	var zero T
	v, err := s.Get(name, args...)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("get %q: result is %T: %w", name, v, domain.ErrInvalidArgument)
	}
	return t, nil
}

// Snapshot returns a read-only lease of the current state.
func (s *Store[S]) Snapshot() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.clone(s.state)
}

// Revision returns the number of committed writes.
func (s *Store[S]) Revision() uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.revision
}

// Tx is the write handle passed to a running mutation.
type Tx[S any] struct {
	store  *Store[S]
	writes int
}

// State returns a lease of the current state for reading inside a mutation.
func (tx *Tx[S]) State() S {
	return tx.store.Snapshot()
}

// Update applies fn to a copy of the state and commits it if fn succeeds.
// Updates from concurrent mutations never interleave.
func (tx *Tx[S]) Update(fn func(state *S) error) error {
	s := tx.store
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	next := s.clone(s.state)
	if err := fn(&next); err != nil {
		return err
	}
	s.state = next
	s.revision++
	tx.writes++
	return nil
}

// Writes returns the number of committed updates in this transaction.
func (tx *Tx[S]) Writes() int {
	return tx.writes
}

func (s *Store[S]) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	lease := s.Snapshot()
	conns := s.connections()
	renders := 0
	for _, c := range conns {
		if c.refresh(lease) {
			renders++
		}
	}
	if s.observer != nil {
		s.observer.Notified(s.name, len(conns), renders)
	}
}

func (s *Store[S]) connections() []*Connection[S] {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return append([]*Connection[S](nil), s.conns...)
}

// Subscribers returns the number of open connections.
func (s *Store[S]) Subscribers() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return len(s.conns)
}
