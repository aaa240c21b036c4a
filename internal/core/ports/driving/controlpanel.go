package driving

import (
	"context"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// ControlPanelService opens search views as control panel models and
// forwards operations to the current one.
type ControlPanelService interface {
	// Views lists the available search views.
	Views(ctx context.Context) ([]string, error)

	// Open loads a view and its favorites and makes the built model current.
	// An empty name opens the configured default view.
	Open(ctx context.Context, name string) (*controlpanel.Model, error)

	// Model returns the current model, or nil before Open.
	Model() *controlpanel.Model

	// Dispatch runs a mutation on the current model.
	Dispatch(ctx context.Context, mutation string, args ...any) error

	// FiltersOfType returns the current model's filters of a type.
	FiltersOfType(t domain.FilterType) ([]domain.Filter, error)

	// Query returns the current model's query.
	Query() (domain.Query, error)

	// Facets returns the current model's facets.
	Facets() ([]domain.Facet, error)

	// Reset drops any saved state and rebuilds the current model from the
	// view defaults.
	Reset(ctx context.Context) error

	// Reload rebuilds the current model from its view definition.
	Reload(ctx context.Context) error

	// Watch reloads the current model whenever its view changes, until
	// ctx is cancelled.
	Watch(ctx context.Context) error

	// OnReload registers fn to be called with every model built by Open
	// or Reload.
	OnReload(fn func(*controlpanel.Model))
}
