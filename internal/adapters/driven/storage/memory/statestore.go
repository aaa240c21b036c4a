package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore is an in-memory implementation of driven.StateStore.
type StateStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string][]byte)}
}

// LoadState returns a copy of the saved state of a view.
func (s *StateStore) LoadState(_ context.Context, view string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[view]
	if !ok {
		return nil, fmt.Errorf("state of %s: %w", view, domain.ErrNotFound)
	}
	return append([]byte(nil), state...), nil
}

// SaveState replaces the saved state of a view.
func (s *StateStore) SaveState(_ context.Context, view string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[view] = append([]byte(nil), state...)
	return nil
}

// ClearState removes the saved state of a view.
func (s *StateStore) ClearState(_ context.Context, view string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, view)
	return nil
}
