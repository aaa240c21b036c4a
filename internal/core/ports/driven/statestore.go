package driven

import "context"

// StateStore keeps the exported state of a panel between runs, keyed by
// view name.
type StateStore interface {
	// LoadState returns the saved state of a view.
	// Returns domain.ErrNotFound if nothing was saved.
	LoadState(ctx context.Context, view string) ([]byte, error)

	// SaveState replaces the saved state of a view.
	SaveState(ctx context.Context, view string, state []byte) error

	// ClearState removes the saved state of a view. Missing state is not
	// an error.
	ClearState(ctx context.Context, view string) error
}
