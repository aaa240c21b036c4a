package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
)

// favoriteStore implements driven.FavoriteStore.
type favoriteStore struct {
	store *Store
}

var _ driven.FavoriteStore = (*favoriteStore)(nil)

// List returns the shared favorites of a model and the private ones of
// userID, oldest first.
func (s *favoriteStore) List(ctx context.Context, model string, userID int) ([]domain.StoredFavorite, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, model, domain, context, group_bys, sort, user_id, is_default
		FROM favorites
		WHERE model = ? AND (user_id = 0 OR user_id = ?)
		ORDER BY id
	`, model, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	favorites := []domain.StoredFavorite{}
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, *fav)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorites: %w", err)
	}

	return favorites, nil
}

// Create inserts a favorite. A default favorite clears the default flag of
// the other favorites of the model it is visible with.
func (s *favoriteStore) Create(ctx context.Context, fav domain.StoredFavorite) (domain.StoredFavorite, error) {
	if strings.TrimSpace(fav.Name) == "" || fav.Model == "" {
		return fav, fmt.Errorf("%w: favorite needs a name and a model", domain.ErrInvalidInput)
	}

	domainJSON, err := json.Marshal(fav.Domain)
	if err != nil {
		return fav, fmt.Errorf("marshalling domain: %w", err)
	}
	contextJSON, err := json.Marshal(nonNilMap(fav.Context))
	if err != nil {
		return fav, fmt.Errorf("marshalling context: %w", err)
	}
	groupBysJSON, err := json.Marshal(nonNilSlice(fav.GroupBys))
	if err != nil {
		return fav, fmt.Errorf("marshalling group bys: %w", err)
	}
	sortJSON, err := json.Marshal(nonNilSlice(domain.FormatSort(fav.OrderedBy)))
	if err != nil {
		return fav, fmt.Errorf("marshalling sort: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fav, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorites WHERE model = ? AND name = ?", fav.Model, fav.Name,
	).Scan(&exists)
	if err != nil {
		return fav, fmt.Errorf("checking favorite name: %w", err)
	}
	if exists > 0 {
		return fav, fmt.Errorf("favorite %q: %w", fav.Name, domain.ErrAlreadyExists)
	}

	if fav.IsDefault {
		_, err = tx.ExecContext(ctx,
			"UPDATE favorites SET is_default = 0 WHERE model = ? AND (user_id = 0 OR user_id = ?)",
			fav.Model, fav.UserID)
		if err != nil {
			return fav, fmt.Errorf("clearing default favorite: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO favorites (name, model, domain, context, group_bys, sort, user_id, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, fav.Name, fav.Model, string(domainJSON), string(contextJSON), string(groupBysJSON),
		string(sortJSON), fav.UserID, boolToInt(fav.IsDefault))
	if err != nil {
		return fav, fmt.Errorf("saving favorite: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fav, fmt.Errorf("reading favorite id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fav, fmt.Errorf("committing favorite: %w", err)
	}

	fav.ID = int(id)
	return fav, nil
}

// Delete removes a favorite.
func (s *favoriteStore) Delete(ctx context.Context, id int) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM favorites WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("favorite %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ==================== Helper Functions ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row rowScanner) (*domain.StoredFavorite, error) {
	var fav domain.StoredFavorite
	var domainJSON, contextJSON, groupBysJSON, sortJSON string
	var isDefault int

	if err := row.Scan(&fav.ID, &fav.Name, &fav.Model, &domainJSON, &contextJSON,
		&groupBysJSON, &sortJSON, &fav.UserID, &isDefault); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning favorite: %w", err)
	}

	d, err := domain.ParseDomain(domainJSON)
	if err != nil {
		return nil, fmt.Errorf("favorite %d: %w", fav.ID, err)
	}
	fav.Domain = d

	if err := json.Unmarshal([]byte(contextJSON), &fav.Context); err != nil {
		return nil, fmt.Errorf("unmarshaling context: %w", err)
	}
	if len(fav.Context) == 0 {
		fav.Context = nil
	}
	if err := json.Unmarshal([]byte(groupBysJSON), &fav.GroupBys); err != nil {
		return nil, fmt.Errorf("unmarshaling group bys: %w", err)
	}
	if len(fav.GroupBys) == 0 {
		fav.GroupBys = nil
	}
	var sortSpecs []string
	if err := json.Unmarshal([]byte(sortJSON), &sortSpecs); err != nil {
		return nil, fmt.Errorf("unmarshaling sort: %w", err)
	}
	fav.OrderedBy = domain.ParseSort(sortSpecs)
	fav.IsDefault = isDefault == 1

	return &fav, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
