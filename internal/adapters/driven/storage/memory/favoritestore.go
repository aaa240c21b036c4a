package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
)

// Ensure FavoriteStore implements the interface.
var _ driven.FavoriteStore = (*FavoriteStore)(nil)

// FavoriteStore is an in-memory implementation of driven.FavoriteStore.
type FavoriteStore struct {
	mu        sync.RWMutex
	nextID    int
	favorites []domain.StoredFavorite
}

// NewFavoriteStore creates a store holding the given favorites. Favorites
// without an ID are assigned one.
func NewFavoriteStore(favorites ...domain.StoredFavorite) *FavoriteStore {
	s := &FavoriteStore{nextID: 1}
	for _, f := range favorites {
		if f.ID >= s.nextID {
			s.nextID = f.ID + 1
		}
	}
	for _, f := range favorites {
		if f.ID == 0 {
			f.ID = s.nextID
			s.nextID++
		}
		s.favorites = append(s.favorites, f)
	}
	return s
}

// List returns the shared favorites of a model and the private ones of userID.
func (s *FavoriteStore) List(ctx context.Context, model string, userID int) ([]domain.StoredFavorite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.StoredFavorite{}
	for _, f := range s.favorites {
		if f.Model == model && (f.IsShared() || f.UserID == userID) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Create stores a favorite with the next ID.
func (s *FavoriteStore) Create(ctx context.Context, fav domain.StoredFavorite) (domain.StoredFavorite, error) {
	if err := ctx.Err(); err != nil {
		return fav, err
	}
	if strings.TrimSpace(fav.Name) == "" || fav.Model == "" {
		return fav, fmt.Errorf("%w: favorite needs a name and a model", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.favorites {
		if f.Model == fav.Model && f.Name == fav.Name {
			return fav, fmt.Errorf("favorite %q: %w", fav.Name, domain.ErrAlreadyExists)
		}
		if fav.IsDefault && f.Model == fav.Model && (f.IsShared() || f.UserID == fav.UserID) {
			s.favorites[i].IsDefault = false
		}
	}

	fav.ID = s.nextID
	s.nextID++
	s.favorites = append(s.favorites, fav)
	return fav, nil
}

// Delete removes a favorite by ID.
func (s *FavoriteStore) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.favorites {
		if f.ID == id {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("favorite %d: %w", id, domain.ErrNotFound)
}
