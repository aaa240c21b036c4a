package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
)

// stateStore implements driven.StateStore.
type stateStore struct {
	store *Store
}

var _ driven.StateStore = (*stateStore)(nil)

// LoadState returns the saved state of a view.
func (s *stateStore) LoadState(ctx context.Context, view string) ([]byte, error) {
	var state string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT state FROM panel_states WHERE view = ?", view,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("state of %s: %w", view, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return []byte(state), nil
}

// SaveState replaces the saved state of a view.
func (s *stateStore) SaveState(ctx context.Context, view string, state []byte) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO panel_states (view, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(view) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, view, string(state), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// ClearState removes the saved state of a view.
func (s *stateStore) ClearState(ctx context.Context, view string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM panel_states WHERE view = ?", view); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	return nil
}
