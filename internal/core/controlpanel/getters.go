package controlpanel

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/store"
)

// enrich returns a copy of f with IsActive, options and selected values
// derived from its query elements.
func (e *env) enrich(f domain.Filter, elems []domain.QueryElement) domain.Filter {
	c := f.Clone()
	c.IsActive = len(elems) > 0
	if c.HasOptions {
		var options []domain.FilterOption
		if c.Type == domain.FilterTypeFilter {
			options = e.periods.filterOptions()
		} else {
			options = append([]domain.FilterOption(nil), IntervalOptions...)
		}
		for i := range options {
			for _, qe := range elems {
				if qe.OptionID == options[i].OptionID {
					options[i].IsActive = true
				}
			}
		}
		c.Options = options
	}
	switch c.Type {
	case domain.FilterTypeField:
		c.AutocompleteValues = nil
		for _, qe := range elems {
			c.AutocompleteValues = append(c.AutocompleteValues, domain.AutocompleteValue{Value: qe.Value, Label: qe.Label})
		}
	case domain.FilterTypeTimeRange:
		if len(elems) > 0 {
			c.FieldName = elems[0].FieldName
			c.RangeID = elems[0].RangeID
			c.ComparisonRangeID = elems[0].ComparisonRangeID
		}
	}
	return c
}

func (e *env) timeRanges(fieldName, rangeID, comparisonRangeID string) (*domain.TimeRanges, error) {
	field, ok := e.fields[fieldName]
	if !ok {
		return nil, fmt.Errorf("%w: time range field %q", domain.ErrInvalidInput, fieldName)
	}
	return resolveTimeRanges(e.periods.now, field, rangeID, comparisonRangeID)
}

func filterTypeArg(args []any, i int) (domain.FilterType, error) {
	var t domain.FilterType
	switch v := argAt(args, i).(type) {
	case domain.FilterType:
		t = v
	case string:
		t = domain.FilterType(v)
	default:
		return "", fmt.Errorf("%w: argument %d is %T, want filter type", domain.ErrInvalidArgument, i, v)
	}
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown filter type %q", domain.ErrInvalidArgument, t)
	}
	return t, nil
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func (m *Model) getFiltersOfType(st State, args []any) (any, error) {
	t, err := filterTypeArg(args, 0)
	if err != nil {
		return nil, err
	}
	return m.evaluate(st).filtersOfType(t), nil
}

func (m *Model) getQuery(st State, _ []any) (any, error) {
	ev := m.evaluate(st)
	q, err := ev.behavior.Query(ev)
	if err != nil {
		return nil, err
	}
	return q.Clone(), nil
}

func (m *Model) getFacets(st State, _ []any) (any, error) {
	ev := m.evaluate(st)
	return ev.behavior.Facets(ev), nil
}

func (m *Model) getExportState(st State, _ []any) (any, error) {
	return exportState(st)
}

// FiltersOfType returns the filters of type t in insertion order, with
// their derived flags.
func (m *Model) FiltersOfType(t domain.FilterType) ([]domain.Filter, error) {
	return store.GetAs[[]domain.Filter](m.Store, GetterFiltersOfType, t)
}

// Query returns the current query.
func (m *Model) Query() (domain.Query, error) {
	return store.GetAs[domain.Query](m.Store, GetterQuery)
}

// Facets returns one facet per active group.
func (m *Model) Facets() ([]domain.Facet, error) {
	return store.GetAs[[]domain.Facet](m.Store, GetterFacets)
}

// ExportState serialises the filters and query so another model can be
// built from them (Config.State) or load them (MutationImportState).
func (m *Model) ExportState() ([]byte, error) {
	return store.GetAs[[]byte](m.Store, GetterExportState)
}

// exported is the serialised form of a State.
type exported struct {
	Filters         []domain.Filter       `json:"filters"`
	Query           []domain.QueryElement `json:"query"`
	NextFilterID    int                   `json:"nextFilterId"`
	NextGroupID     int                   `json:"nextGroupId"`
	NextGroupNumber int                   `json:"nextGroupNumber"`
}

func exportState(st State) ([]byte, error) {
	x := exported{
		Filters:         make([]domain.Filter, 0, len(st.order)),
		Query:           st.QueryElements(),
		NextFilterID:    st.nextFilterID,
		NextGroupID:     st.nextGroupID,
		NextGroupNumber: st.nextGroupNumber,
	}
	for _, id := range st.order {
		x.Filters = append(x.Filters, st.filters[id])
	}
	if x.Query == nil {
		x.Query = []domain.QueryElement{}
	}
	data, err := json.Marshal(x)
	if err != nil {
		return nil, fmt.Errorf("export state: %w", err)
	}
	return data, nil
}

// importState replaces the filters and query of st with exported data.
// Every filter type and the query are marked changed.
func (e *env) importState(st *State, data []byte) error {
	var x exported
	if err := json.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("%w: import state: %v", domain.ErrInvalidInput, err)
	}
	filters := make(map[int]domain.Filter, len(x.Filters))
	order := make([]int, 0, len(x.Filters))
	maxFilter, maxGroup, maxNumber := 0, 0, 0
	for _, f := range x.Filters {
		if f.ID <= 0 || !f.Type.IsValid() {
			return fmt.Errorf("%w: import state: bad filter %d of type %q", domain.ErrInvalidInput, f.ID, f.Type)
		}
		if _, dup := filters[f.ID]; dup {
			return fmt.Errorf("%w: import state: duplicate filter %d", domain.ErrInvalidInput, f.ID)
		}
		f.IsActive = false
		f.Options = nil
		f.AutocompleteValues = nil
		filters[f.ID] = f
		order = append(order, f.ID)
		maxFilter = max(maxFilter, f.ID)
		maxGroup = max(maxGroup, f.GroupID)
		maxNumber = max(maxNumber, f.GroupNumber)
	}
	for _, qe := range x.Query {
		if _, ok := filters[qe.FilterID]; !ok {
			return fmt.Errorf("import state: query element: filter %d: %w", qe.FilterID, domain.ErrFilterNotFound)
		}
	}

	st.filters = filters
	st.order = order
	st.nextFilterID = max(x.NextFilterID, maxFilter+1)
	st.nextGroupID = max(x.NextGroupID, maxGroup+1)
	st.nextGroupNumber = max(x.NextGroupNumber, maxNumber+1)
	for _, t := range domain.AllFilterTypes() {
		st.touch(t)
	}
	st.query = x.Query
	st.queryRev++
	return nil
}
