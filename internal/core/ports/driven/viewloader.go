package driven

import (
	"context"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// ViewLoader reads search view definitions.
type ViewLoader interface {
	// Load returns the named search view.
	// Returns domain.ErrNotFound if no such view exists.
	Load(ctx context.Context, name string) (*domain.SearchView, error)

	// List returns the names of the available views, sorted.
	List(ctx context.Context) ([]string, error)

	// Watch calls onChange with the view name whenever a view definition
	// changes, until ctx is cancelled.
	Watch(ctx context.Context, onChange func(name string)) error
}
