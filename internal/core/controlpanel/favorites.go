package controlpanel

import (
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// Context keys a favorite's context carries besides plain context values.
const (
	contextGroupBy    = "group_by"
	contextTimeRanges = "time_ranges"
)

// FavoriteDraft describes a favorite to save from the current query.
type FavoriteDraft struct {
	Description string `json:"description"`
	IsDefault   bool   `json:"isDefault,omitempty"`
	IsShared    bool   `json:"isShared,omitempty"`
}

// favoriteFilter converts a stored favorite into a filter. Group-bys and
// time ranges kept in the stored context move to their own fields.
func favoriteFilter(fav domain.StoredFavorite) domain.Filter {
	ctx := domain.CloneContext(fav.Context)
	groupBys := append([]string(nil), fav.GroupBys...)
	if len(groupBys) == 0 {
		groupBys = domain.ContextGroupBys(ctx)
	}
	delete(ctx, contextGroupBy)

	f := domain.Filter{
		Type:         domain.FilterTypeFavorite,
		Description:  fav.Name,
		Domain:       fav.Domain,
		GroupBys:     groupBys,
		OrderedBy:    append([]domain.OrderBy(nil), fav.OrderedBy...),
		ServerSideID: fav.ID,
		UserID:       fav.UserID,
		IsDefault:    fav.IsDefault,
		Removable:    true,
		GroupNumber:  FavoriteSharedGroup,
	}
	if fav.UserID != 0 {
		f.GroupNumber = FavoritePrivateGroup
	}
	if tr, ok := ctx[contextTimeRanges]; ok {
		f.FieldName = stringEntry(tr, "field")
		f.RangeID = stringEntry(tr, "range")
		f.ComparisonRangeID = stringEntry(tr, "comparisonRange")
		delete(ctx, contextTimeRanges)
	}
	if len(ctx) > 0 {
		f.Context = ctx
	}
	return f
}

func stringEntry(v any, key string) string {
	switch m := v.(type) {
	case map[string]any:
		s, _ := m[key].(string)
		return s
	case map[string]string:
		return m[key]
	default:
		return ""
	}
}

// storedFavorite is the inverse of favoriteFilter. Group-bys are kept in
// their own field, time ranges in the context.
func storedFavorite(model string, f domain.Filter) domain.StoredFavorite {
	ctx := domain.CloneContext(f.Context)
	if ctx == nil {
		ctx = map[string]any{}
	}
	if f.RangeID != "" {
		tr := map[string]any{"field": f.FieldName, "range": f.RangeID}
		if f.ComparisonRangeID != "" {
			tr["comparisonRange"] = f.ComparisonRangeID
		}
		ctx[contextTimeRanges] = tr
	}
	if len(ctx) == 0 {
		ctx = nil
	}
	return domain.StoredFavorite{
		ID:        f.ServerSideID,
		Name:      f.Description,
		Model:     model,
		Domain:    f.Domain,
		Context:   ctx,
		GroupBys:  append([]string(nil), f.GroupBys...),
		OrderedBy: append([]domain.OrderBy(nil), f.OrderedBy...),
		UserID:    f.UserID,
		IsDefault: f.IsDefault,
	}
}
