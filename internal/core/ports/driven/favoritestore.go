package driven

import (
	"context"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// FavoriteStore persists saved searches (favorites) per model.
type FavoriteStore interface {
	// List returns the favorites of a model visible to the user, private
	// and shared, in creation order.
	List(ctx context.Context, model string, userID int) ([]domain.StoredFavorite, error)

	// Create saves a favorite and returns it with its assigned ID.
	// Returns domain.ErrAlreadyExists if the name is taken for the model.
	Create(ctx context.Context, fav domain.StoredFavorite) (domain.StoredFavorite, error)

	// Delete removes a favorite by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int) error
}
