package controlpanel

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/logger"
	"github.com/custodia-labs/cpanel/internal/store"
)

// AutocompleteSelection is a value chosen for a field filter.
type AutocompleteSelection struct {
	FilterID int    `json:"filterId"`
	Label    string `json:"label"`
	Value    any    `json:"value"`
	Operator string `json:"operator,omitempty"`
}

func (e *env) filter(st *State, id int) (domain.Filter, error) {
	f, ok := st.filters[id]
	if !ok {
		return domain.Filter{}, fmt.Errorf("filter %d: %w", id, domain.ErrFilterNotFound)
	}
	return f, nil
}

// toggleFilter activates or deactivates a filter without options. Activating
// a favorite clears the query first, keeping other favorites only when
// favorites may be combined.
func (e *env) toggleFilter(st *State, id int) error {
	f, err := e.filter(st, id)
	if err != nil {
		return err
	}
	if st.isActive(id) {
		st.setQuery(withoutFilter(st.query, id))
		return nil
	}
	switch {
	case f.HasOptions:
		return e.toggleFilterWithOptions(st, id, "")
	case f.Type == domain.FilterTypeField:
		return fmt.Errorf("%w: field filter %d is activated with a value", domain.ErrInvalidArgument, id)
	case f.Type == domain.FilterTypeTimeRange:
		return fmt.Errorf("%w: time range is activated with a field and range", domain.ErrInvalidArgument)
	case f.Type == domain.FilterTypeFavorite:
		var kept []domain.QueryElement
		if e.combineFav {
			for _, qe := range st.query {
				if other, ok := st.filters[qe.FilterID]; ok && other.Type == domain.FilterTypeFavorite {
					kept = append(kept, qe)
				}
			}
		}
		st.setQuery(kept)
	}
	st.appendQuery(domain.QueryElement{FilterID: id, GroupID: f.GroupID})
	return nil
}

// optionGroup returns the group number of an option of f.
func (e *env) optionGroup(f domain.Filter, optionID string) (int, bool) {
	if f.Type == domain.FilterTypeFilter {
		p, ok := e.periods.find(optionID)
		return p.groupNumber, ok
	}
	for _, o := range IntervalOptions {
		if o.OptionID == optionID {
			return o.GroupNumber, true
		}
	}
	return 0, false
}

// toggleFilterWithOptions toggles one option of a date filter or date
// group-by. An empty optionID selects the filter's default option.
func (e *env) toggleFilterWithOptions(st *State, id int, optionID string) error {
	f, err := e.filter(st, id)
	if err != nil {
		return err
	}
	if !f.HasOptions {
		return fmt.Errorf("%w: filter %d has no options", domain.ErrInvalidArgument, id)
	}
	if optionID == "" {
		optionID = f.DefaultOptionID
	}
	group, ok := e.optionGroup(f, optionID)
	if !ok {
		return fmt.Errorf("filter %d option %q: %w", id, optionID, domain.ErrOptionNotFound)
	}

	isDate := f.Type == domain.FilterTypeFilter
	for _, qe := range st.query {
		if qe.FilterID != id || qe.OptionID != optionID {
			continue
		}
		next := withoutOption(st.query, id, optionID)
		if isDate && !e.hasYear(next, id) {
			next = withoutFilter(next, id)
		}
		st.setQuery(next)
		return nil
	}

	next := make([]domain.QueryElement, 0, len(st.query)+2)
	for _, qe := range st.query {
		if qe.FilterID == id {
			if g, _ := e.optionGroup(f, qe.OptionID); g == group {
				continue
			}
		}
		next = append(next, qe)
	}
	next = append(next, domain.QueryElement{FilterID: id, GroupID: f.GroupID, OptionID: optionID})
	if isDate && !e.hasYear(next, id) {
		if yearID, ok := e.periods.defaultYearID(optionID); ok {
			next = append(next, domain.QueryElement{FilterID: id, GroupID: f.GroupID, OptionID: yearID})
		}
	}
	st.setQuery(next)
	return nil
}

func (e *env) hasYear(q []domain.QueryElement, id int) bool {
	for _, qe := range q {
		if qe.FilterID == id && e.periods.isYear(qe.OptionID) {
			return true
		}
	}
	return false
}

func withoutOption(q []domain.QueryElement, filterID int, optionID string) []domain.QueryElement {
	out := make([]domain.QueryElement, 0, len(q))
	for _, qe := range q {
		if qe.FilterID != filterID || qe.OptionID != optionID {
			out = append(out, qe)
		}
	}
	return out
}

// createNewFilters adds user-authored filters in one new group and
// activates them. All filters are validated before any is added.
func (e *env) createNewFilters(st *State, pres []domain.PreFilter) ([]int, error) {
	if len(pres) == 0 {
		return nil, nil
	}
	filters := make([]domain.Filter, 0, len(pres))
	for i, pre := range pres {
		f, err := e.userFilter(pre)
		if err != nil {
			return nil, fmt.Errorf("new filter %d: %w", i, err)
		}
		filters = append(filters, f)
	}
	groupID := st.newGroup()
	groupNumber := st.newGroupNumber()
	ids := make([]int, 0, len(filters))
	elems := make([]domain.QueryElement, 0, len(filters))
	for _, f := range filters {
		f.GroupID = groupID
		f.GroupNumber = groupNumber
		f = st.addFilter(f)
		ids = append(ids, f.ID)
		elems = append(elems, domain.QueryElement{FilterID: f.ID, GroupID: groupID})
	}
	st.appendQuery(elems...)
	return ids, nil
}

// userFilter validates a PreFilter and builds its domain.
func (e *env) userFilter(pre domain.PreFilter) (domain.Filter, error) {
	f := domain.Filter{
		Type:        domain.FilterTypeFilter,
		Description: pre.Description,
		Context:     domain.CloneContext(pre.Context),
	}
	if len(pre.Domain) > 0 {
		if err := pre.Domain.Validate(); err != nil {
			return domain.Filter{}, err
		}
		f.Domain = pre.Domain
		if f.Description == "" {
			f.Description = pre.Domain.String()
		}
		return f, nil
	}

	field, ok := e.fields[pre.Field]
	if !ok {
		return domain.Filter{}, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, pre.Field)
	}
	operators, ok := OperatorsFor(field.Type)
	if !ok {
		return domain.Filter{}, fmt.Errorf("field %q of type %s: %w", field.Name, field.Type, domain.ErrUnsupportedType)
	}
	op, ok := pickOperator(operators, pre.Operator, pre.Value)
	if !ok {
		return domain.Filter{}, fmt.Errorf("%w: operator %q not allowed on %s", domain.ErrInvalidInput, pre.Operator, field.Type)
	}
	value := pre.Value
	if op.Value != nil {
		value = op.Value
	}

	if op.Symbol == "between" {
		bounds, ok := value.([]any)
		if !ok || len(bounds) != 2 {
			return domain.Filter{}, fmt.Errorf("%w: between needs two values", domain.ErrInvalidInput)
		}
		f.Domain = domain.And(
			domain.Leaf(field.Name, ">=", bounds[0]),
			domain.Leaf(field.Name, "<=", bounds[1]),
		)
	} else {
		f.Domain = domain.Leaf(field.Name, op.Symbol, value)
	}

	if f.Description == "" {
		parts := []string{fieldLabel(field), op.Description}
		if op.Value == nil {
			parts = append(parts, e.describeValue(field, value))
		}
		f.Description = strings.Join(parts, " ")
	}
	return f, nil
}

func (e *env) describeValue(field domain.FieldMeta, v any) string {
	if bounds, ok := v.([]any); ok && len(bounds) == 2 {
		return fmt.Sprintf("%v and %v", bounds[0], bounds[1])
	}
	return e.valueLabel(domain.Filter{FieldName: field.Name}, v)
}

// pickOperator finds the operator matching symbol. Several operators share
// a symbol ("=" is also "is not set"); a fixed-value operator is picked
// only when no value was given.
func pickOperator(operators []FieldOperator, symbol string, value any) (FieldOperator, bool) {
	var fallback *FieldOperator
	for i, op := range operators {
		if op.Symbol != symbol {
			continue
		}
		if (op.Value != nil) == (value == nil) {
			return op, true
		}
		if fallback == nil {
			fallback = &operators[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return FieldOperator{}, false
}

// createNewGroupBy adds a group-by on a field to the existing group-by
// group and activates it.
func (e *env) createNewGroupBy(st *State, fieldName string) (int, error) {
	field, ok := e.fields[fieldName]
	if !ok {
		return 0, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, fieldName)
	}
	if !IsGroupable(field.Type) {
		return 0, fmt.Errorf("field %q of type %s: %w", fieldName, field.Type, domain.ErrNotGroupable)
	}
	f := domain.Filter{
		Type:        domain.FilterTypeGroupBy,
		Description: fieldLabel(field),
		FieldName:   field.Name,
		FieldType:   field.Type,
		GroupNumber: st.newGroupNumber(),
	}
	if existing, ok := st.firstOfType(domain.FilterTypeGroupBy); ok {
		f.GroupID = existing.GroupID
	} else {
		f.GroupID = st.newGroup()
	}
	if isDateType(field.Type) {
		f.HasOptions = true
		f.DefaultOptionID = DefaultInterval
	}
	f = st.addFilter(f)
	if f.HasOptions {
		return f.ID, e.toggleFilterWithOptions(st, f.ID, "")
	}
	return f.ID, e.toggleFilter(st, f.ID)
}

// activateTimeRange sets the time range filter's configuration and
// activates it, replacing any previous configuration in place.
func (e *env) activateTimeRange(st *State, fieldName, rangeID, comparisonRangeID string) error {
	f, ok := st.firstOfType(domain.FilterTypeTimeRange)
	if !ok {
		return fmt.Errorf("time range: %w", domain.ErrFilterNotFound)
	}
	field, ok := e.fields[fieldName]
	if !ok || !isDateType(field.Type) {
		return fmt.Errorf("%w: time range field %q is not a date field", domain.ErrInvalidInput, fieldName)
	}
	if _, ok := findRange(TimeRangeOptions, rangeID); !ok {
		return fmt.Errorf("%w: time range %q", domain.ErrOptionNotFound, rangeID)
	}
	if comparisonRangeID != "" {
		if _, ok := findRange(ComparisonRangeOptions, comparisonRangeID); !ok {
			return fmt.Errorf("%w: comparison range %q", domain.ErrOptionNotFound, comparisonRangeID)
		}
	}

	elem := domain.QueryElement{
		FilterID:          f.ID,
		GroupID:           f.GroupID,
		FieldName:         fieldName,
		RangeID:           rangeID,
		ComparisonRangeID: comparisonRangeID,
	}
	next := make([]domain.QueryElement, 0, len(st.query)+1)
	replaced := false
	for _, qe := range st.query {
		if qe.FilterID == f.ID {
			if !replaced {
				next = append(next, elem)
				replaced = true
			}
			continue
		}
		next = append(next, qe)
	}
	if !replaced {
		next = append(next, elem)
	}
	st.setQuery(next)
	return nil
}

// addAutoCompletionValues activates a value on a field filter. A value
// already selected with the same operator is not added twice.
func (e *env) addAutoCompletionValues(st *State, sel AutocompleteSelection) error {
	f, err := e.filter(st, sel.FilterID)
	if err != nil {
		return err
	}
	if f.Type != domain.FilterTypeField {
		return fmt.Errorf("%w: filter %d is not a field filter", domain.ErrInvalidArgument, sel.FilterID)
	}
	operator := firstNonEmpty(sel.Operator, f.Operator, "=")
	for _, qe := range st.query {
		if qe.FilterID == f.ID && qe.Operator == operator && fmt.Sprint(qe.Value) == fmt.Sprint(sel.Value) {
			return nil
		}
	}
	label := sel.Label
	if label == "" {
		label = e.valueLabel(f, sel.Value)
	}
	st.appendQuery(domain.QueryElement{
		FilterID: f.ID,
		GroupID:  f.GroupID,
		Label:    label,
		Value:    sel.Value,
		Operator: operator,
	})
	return nil
}

// updateFilters creates new filters and deactivates the given ones.
func (e *env) updateFilters(st *State, pres []domain.PreFilter, toRemove []int) ([]int, error) {
	ids, err := e.createNewFilters(st, pres)
	if err != nil {
		return nil, err
	}
	next := st.query
	for _, id := range toRemove {
		if _, ok := st.filters[id]; !ok {
			return nil, fmt.Errorf("filter %d: %w", id, domain.ErrFilterNotFound)
		}
		next = withoutFilter(next, id)
	}
	st.setQuery(next)
	return ids, nil
}

// selectionSuggestions matches term against a selection field's labels.
func selectionSuggestions(field domain.FieldMeta, term string, limit int) []domain.AutocompleteValue {
	term = strings.ToLower(term)
	var out []domain.AutocompleteValue
	for _, s := range field.Selection {
		if strings.Contains(strings.ToLower(s.Label), term) {
			out = append(out, domain.AutocompleteValue{Value: s.Value, Label: s.Label})
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Store mutations.

func (m *Model) update(tx *store.Tx[State], fn func(e *env, st *State) error) error {
	return tx.Update(func(st *State) error { return fn(m.env, st) })
}

func (m *Model) mutToggleFilter(_ context.Context, tx *store.Tx[State], args []any) error {
	id, err := store.Arg[int](args, 0)
	if err != nil {
		return err
	}
	return m.update(tx, func(e *env, st *State) error { return e.toggleFilter(st, id) })
}

func (m *Model) mutToggleFilterWithOptions(_ context.Context, tx *store.Tx[State], args []any) error {
	id, err := store.Arg[int](args, 0)
	if err != nil {
		return err
	}
	optionID, err := store.OptionalArg(args, 1, "")
	if err != nil {
		return err
	}
	return m.update(tx, func(e *env, st *State) error { return e.toggleFilterWithOptions(st, id, optionID) })
}

// setOut stores ids in an optional *[]int argument.
func setOut(args []any, i int, ids []int) error {
	out, err := store.OptionalArg[*[]int](args, i, nil)
	if err != nil {
		return err
	}
	if out != nil {
		*out = ids
	}
	return nil
}

func (m *Model) mutCreateNewFilters(_ context.Context, tx *store.Tx[State], args []any) error {
	pres, err := store.Arg[[]domain.PreFilter](args, 0)
	if err != nil {
		return err
	}
	var ids []int
	err = m.update(tx, func(e *env, st *State) error {
		ids, err = e.createNewFilters(st, pres)
		return err
	})
	if err != nil {
		return err
	}
	return setOut(args, 1, ids)
}

func (m *Model) mutCreateNewGroupBy(_ context.Context, tx *store.Tx[State], args []any) error {
	fieldName, err := store.Arg[string](args, 0)
	if err != nil {
		return err
	}
	var id int
	err = m.update(tx, func(e *env, st *State) error {
		id, err = e.createNewGroupBy(st, fieldName)
		return err
	})
	if err != nil {
		return err
	}
	return setOut(args, 1, []int{id})
}

func (m *Model) mutActivateTimeRange(_ context.Context, tx *store.Tx[State], args []any) error {
	fieldName, err := store.Arg[string](args, 0)
	if err != nil {
		return err
	}
	rangeID, err := store.Arg[string](args, 1)
	if err != nil {
		return err
	}
	comparisonID, err := store.OptionalArg(args, 2, "")
	if err != nil {
		return err
	}
	return m.update(tx, func(e *env, st *State) error {
		return e.activateTimeRange(st, fieldName, rangeID, comparisonID)
	})
}

// mutDeleteFavorite asks the favorite store to delete the favorite and
// removes it from the panel once the store agreed.
func (m *Model) mutDeleteFavorite(ctx context.Context, tx *store.Tx[State], args []any) error {
	id, err := store.Arg[int](args, 0)
	if err != nil {
		return err
	}
	lease := tx.State()
	f, err := m.env.filter(&lease, id)
	if err != nil {
		return err
	}
	if f.Type != domain.FilterTypeFavorite {
		return fmt.Errorf("%w: filter %d is not a favorite", domain.ErrInvalidArgument, id)
	}
	if m.env.favorites == nil {
		return fmt.Errorf("delete favorite %q: %w: no favorite store", f.Description, domain.ErrHostRejected)
	}
	if err := m.env.favorites.Delete(ctx, f.ServerSideID); err != nil {
		logger.Warn("controlpanel: delete favorite %q: %v", f.Description, err)
		return fmt.Errorf("delete favorite %q: %w: %w", f.Description, domain.ErrHostRejected, err)
	}
	return m.update(tx, func(_ *env, st *State) error {
		st.removeFilter(id)
		return nil
	})
}

// mutCreateNewFavorite saves the current query as a favorite, then
// replaces the query with the new favorite.
func (m *Model) mutCreateNewFavorite(ctx context.Context, tx *store.Tx[State], args []any) error {
	draft, err := store.Arg[FavoriteDraft](args, 0)
	if err != nil {
		return err
	}
	draft.Description = strings.TrimSpace(draft.Description)
	if draft.Description == "" {
		return fmt.Errorf("%w: favorite name is required", domain.ErrInvalidInput)
	}
	lease := tx.State()
	for _, f := range lease.filtersOfType(domain.FilterTypeFavorite) {
		if f.Description == draft.Description {
			return fmt.Errorf("favorite %q: %w", draft.Description, domain.ErrAlreadyExists)
		}
	}
	if m.env.favorites == nil {
		return fmt.Errorf("save favorite %q: %w: no favorite store", draft.Description, domain.ErrHostRejected)
	}

	ev := m.evaluate(lease)
	timeRanges, err := ev.TimeRanges()
	if err != nil {
		return err
	}
	fav := domain.Filter{
		Type:        domain.FilterTypeFavorite,
		Description: draft.Description,
		Domain:      ev.GroupsDomain(),
		Context:     ev.GroupsContext(false),
		GroupBys:    ev.GroupBys(),
		OrderedBy:   ev.OrderedBy(),
		IsDefault:   draft.IsDefault,
	}
	if !draft.IsShared {
		fav.UserID = m.env.userID
	}
	if timeRanges != nil {
		fav.FieldName = timeRanges.FieldName
		fav.RangeID = timeRanges.RangeID
		fav.ComparisonRangeID = timeRanges.ComparisonRangeID
	}

	saved, err := m.env.favorites.Create(ctx, storedFavorite(m.env.model, fav))
	if err != nil {
		logger.Warn("controlpanel: save favorite %q: %v", draft.Description, err)
		return fmt.Errorf("save favorite %q: %w: %w", draft.Description, domain.ErrHostRejected, err)
	}

	var id int
	err = m.update(tx, func(_ *env, st *State) error {
		f := favoriteFilter(saved)
		f.GroupID = st.newGroup()
		f = st.addFilter(f)
		id = f.ID
		st.setQuery([]domain.QueryElement{{FilterID: f.ID, GroupID: f.GroupID}})
		return nil
	})
	if err != nil {
		return err
	}
	return setOut(args, 1, []int{id})
}

func (m *Model) mutClearQuery(_ context.Context, tx *store.Tx[State], _ []any) error {
	return m.update(tx, func(_ *env, st *State) error {
		st.setQuery(nil)
		return nil
	})
}

func (m *Model) mutDeactivateGroup(_ context.Context, tx *store.Tx[State], args []any) error {
	groupID, err := store.Arg[int](args, 0)
	if err != nil {
		return err
	}
	return m.update(tx, func(_ *env, st *State) error {
		st.setQuery(withoutGroup(st.query, groupID))
		return nil
	})
}

func (m *Model) mutAddAutoCompletionValues(_ context.Context, tx *store.Tx[State], args []any) error {
	sel, err := store.Arg[AutocompleteSelection](args, 0)
	if err != nil {
		return err
	}
	return m.update(tx, func(e *env, st *State) error { return e.addAutoCompletionValues(st, sel) })
}

// mutFetchAutocomplete asks the autocomplete source for values of a field
// filter and stores them as suggestions. Selection fields are answered
// from their metadata. The last response to arrive wins.
func (m *Model) mutFetchAutocomplete(ctx context.Context, tx *store.Tx[State], args []any) error {
	id, err := store.Arg[int](args, 0)
	if err != nil {
		return err
	}
	term, err := store.Arg[string](args, 1)
	if err != nil {
		return err
	}
	lease := tx.State()
	f, err := m.env.filter(&lease, id)
	if err != nil {
		return err
	}
	if f.Type != domain.FilterTypeField {
		return fmt.Errorf("%w: filter %d is not a field filter", domain.ErrInvalidArgument, id)
	}

	var values []domain.AutocompleteValue
	field := m.env.fields[f.FieldName]
	switch {
	case field.Type == "selection":
		values = selectionSuggestions(field, term, AutocompleteLimit)
	case m.env.autocomplete == nil:
		return fmt.Errorf("autocomplete %s: %w: no autocomplete source", f.FieldName, domain.ErrHostRejected)
	default:
		values, err = m.env.autocomplete.Autocomplete(ctx, m.env.model, f.FieldName, term, AutocompleteLimit)
		if err != nil {
			return fmt.Errorf("autocomplete %s: %w: %w", f.FieldName, domain.ErrHostRejected, err)
		}
	}
	return m.update(tx, func(_ *env, st *State) error {
		st.suggestions = Suggestions{
			FilterID: id,
			Term:     term,
			Values:   values,
			Rev:      st.suggestions.Rev + 1,
		}
		return nil
	})
}

func (m *Model) mutUpdateFilters(_ context.Context, tx *store.Tx[State], args []any) error {
	pres, err := store.OptionalArg[[]domain.PreFilter](args, 0, nil)
	if err != nil {
		return err
	}
	toRemove, err := store.OptionalArg[[]int](args, 1, nil)
	if err != nil {
		return err
	}
	var ids []int
	err = m.update(tx, func(e *env, st *State) error {
		ids, err = e.updateFilters(st, pres, toRemove)
		return err
	})
	if err != nil {
		return err
	}
	return setOut(args, 2, ids)
}

func (m *Model) mutImportState(_ context.Context, tx *store.Tx[State], args []any) error {
	data, err := store.Arg[[]byte](args, 0)
	if err != nil {
		return err
	}
	return m.update(tx, func(e *env, st *State) error {
		fresh := newState()
		fresh.typeRevs = st.typeRevs
		fresh.queryRev = st.queryRev
		fresh.suggestions = st.suggestions
		if err := e.importState(&fresh, data); err != nil {
			return err
		}
		// Ids handed out before the import must never be reissued.
		fresh.nextFilterID = max(fresh.nextFilterID, st.nextFilterID)
		fresh.nextGroupID = max(fresh.nextGroupID, st.nextGroupID)
		fresh.nextGroupNumber = max(fresh.nextGroupNumber, st.nextGroupNumber)
		*st = fresh
		return nil
	})
}

// mutSearch asks connected components to fetch results again without
// changing the query. An optional true argument also marks every filter
// type changed so filter menus re-render.
func (m *Model) mutSearch(_ context.Context, tx *store.Tx[State], args []any) error {
	all, err := store.OptionalArg(args, 0, false)
	if err != nil {
		return err
	}
	return m.update(tx, func(_ *env, st *State) error {
		if all {
			for _, t := range domain.AllFilterTypes() {
				st.touch(t)
			}
		}
		st.queryRev++
		return nil
	})
}
