package controlpanel

import (
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// FilterList is the result of SelectFilters. Components bound to it render
// only when filters of its type change.
type FilterList struct {
	Type    domain.FilterType
	Rev     uint64
	Filters []domain.Filter
}

// Revision implements store.Revisioned.
func (l FilterList) Revision() uint64 {
	return l.Rev
}

// QueryView is the result of SelectQuery.
type QueryView struct {
	Rev   uint64
	Query domain.Query
	Err   error
}

// Revision implements store.Revisioned.
func (v QueryView) Revision() uint64 {
	return v.Rev
}

// FacetList is the result of SelectFacets.
type FacetList struct {
	Rev    uint64
	Facets []domain.Facet
}

// Revision implements store.Revisioned.
func (l FacetList) Revision() uint64 {
	return l.Rev
}

// SelectFilters selects the filters of type t with their derived flags.
func (m *Model) SelectFilters(t domain.FilterType) func(State) FilterList {
	return func(st State) FilterList {
		return FilterList{Type: t, Rev: st.TypeRevision(t), Filters: m.evaluate(st).filtersOfType(t)}
	}
}

// SelectQuery selects the query. Its revision also changes on search.
func (m *Model) SelectQuery() func(State) QueryView {
	return func(st State) QueryView {
		ev := m.evaluate(st)
		q, err := ev.behavior.Query(ev)
		return QueryView{Rev: st.QueryRevision(), Query: q.Clone(), Err: err}
	}
}

// SelectFacets selects the facets of the active groups.
func (m *Model) SelectFacets() func(State) FacetList {
	return func(st State) FacetList {
		ev := m.evaluate(st)
		return FacetList{Rev: st.QueryRevision(), Facets: ev.behavior.Facets(ev)}
	}
}

// SelectSuggestions selects the last autocomplete results.
func SelectSuggestions(st State) Suggestions {
	return st.Suggestions()
}
