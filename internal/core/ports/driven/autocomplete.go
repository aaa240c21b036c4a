package driven

import (
	"context"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// AutocompleteSource suggests values for a searchable field.
type AutocompleteSource interface {
	// Autocomplete returns at most limit values of model.field matching term.
	Autocomplete(ctx context.Context, model, field, term string, limit int) ([]domain.AutocompleteValue, error)
}
