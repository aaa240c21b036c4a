package services

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// errStaleState marks a saved state exported against another view
// definition or favorite set.
var errStaleState = errors.New("saved state does not match the view")

// savedState is the envelope written to the state store.
type savedState struct {
	Fingerprint string          `json:"fingerprint"`
	State       json.RawMessage `json:"state"`
}

// viewDigest hashes a view definition as loaded, before any model uses it.
func viewDigest(view *domain.SearchView) (string, error) {
	data, err := domain.EncodeJSON(view, "")
	if err != nil {
		return "", fmt.Errorf("digest view %s: %w", view.Name, err)
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", h[:16]), nil
}

// stateFingerprint combines a view digest with the ids of the favorites
// the panel holds.
func stateFingerprint(digest string, favoriteIDs []int) string {
	ids := slices.Clone(favoriteIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	parts := make([]string, 0, len(ids)+1)
	parts = append(parts, digest)
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("sha256:%x", h[:16])
}

func storedFavoriteIDs(favorites []domain.StoredFavorite) []int {
	ids := make([]int, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ID)
	}
	return ids
}

func modelFavoriteIDs(m *controlpanel.Model) ([]int, error) {
	favorites, err := m.FiltersOfType(domain.FilterTypeFavorite)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(favorites))
	for _, f := range favorites {
		if f.ServerSideID != 0 {
			ids = append(ids, f.ServerSideID)
		}
	}
	return ids, nil
}

func encodeSavedState(fingerprint string, state []byte) ([]byte, error) {
	return json.Marshal(savedState{Fingerprint: fingerprint, State: state})
}

// decodeSavedState returns the exported state inside data when its
// fingerprint matches want.
func decodeSavedState(data []byte, want string) ([]byte, error) {
	var saved savedState
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("%w: %v", errStaleState, err)
	}
	if saved.Fingerprint != want || len(saved.State) == 0 {
		return nil, errStaleState
	}
	return saved.State, nil
}
