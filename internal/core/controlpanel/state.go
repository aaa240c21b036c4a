package controlpanel

import (
	"reflect"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// State is the control panel state held by the store. Its fields are only
// reachable through read methods; writes go through dispatched mutations.
//
// Filters are stored by value and their slices are replaced, never modified
// in place, so clones share unchanged filters.
type State struct {
	filters map[int]domain.Filter
	order   []int
	query   []domain.QueryElement

	nextFilterID    int
	nextGroupID     int
	nextGroupNumber int

	typeRevs    map[domain.FilterType]uint64
	queryRev    uint64
	suggestions Suggestions
}

// Suggestions are the last autocomplete results fetched for a field filter.
type Suggestions struct {
	FilterID int
	Term     string
	Values   []domain.AutocompleteValue
	Rev      uint64
}

// Revision implements store.Revisioned.
func (s Suggestions) Revision() uint64 {
	return s.Rev
}

func newState() State {
	return State{
		filters:         make(map[int]domain.Filter),
		typeRevs:        make(map[domain.FilterType]uint64),
		nextFilterID:    1,
		nextGroupID:     1,
		nextGroupNumber: 1,
	}
}

func cloneState(s State) State {
	c := s
	c.filters = make(map[int]domain.Filter, len(s.filters))
	for id, f := range s.filters {
		c.filters[id] = f
	}
	c.order = append([]int(nil), s.order...)
	c.query = append([]domain.QueryElement(nil), s.query...)
	c.typeRevs = make(map[domain.FilterType]uint64, len(s.typeRevs))
	for t, r := range s.typeRevs {
		c.typeRevs[t] = r
	}
	return c
}

// Filter returns a copy of the stored filter with the given id (without
// derived flags).
func (s State) Filter(id int) (domain.Filter, bool) {
	f, ok := s.filters[id]
	if !ok {
		return domain.Filter{}, false
	}
	return f.Clone(), true
}

// Len returns the number of filters.
func (s State) Len() int {
	return len(s.order)
}

// QueryElements returns a copy of the active query elements in activation order.
func (s State) QueryElements() []domain.QueryElement {
	return append([]domain.QueryElement(nil), s.query...)
}

// TypeRevision changes whenever a filter of type t is added, removed,
// activated or deactivated.
func (s State) TypeRevision(t domain.FilterType) uint64 {
	return s.typeRevs[t]
}

// QueryRevision changes whenever the query changes or a search is requested.
func (s State) QueryRevision() uint64 {
	return s.queryRev
}

// Suggestions returns the last autocomplete results.
func (s State) Suggestions() Suggestions {
	return s.suggestions
}

func (s *State) touch(t domain.FilterType) {
	s.typeRevs[t]++
}

func (s *State) addFilter(f domain.Filter) domain.Filter {
	f.ID = s.nextFilterID
	s.nextFilterID++
	s.filters[f.ID] = f
	s.order = append(s.order, f.ID)
	s.touch(f.Type)
	return f
}

// newGroup reserves a group id.
func (s *State) newGroup() int {
	id := s.nextGroupID
	s.nextGroupID++
	return id
}

func (s *State) newGroupNumber() int {
	n := s.nextGroupNumber
	s.nextGroupNumber++
	return n
}

func (s *State) removeFilter(id int) {
	f, ok := s.filters[id]
	if !ok {
		return
	}
	delete(s.filters, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.setQuery(withoutFilter(s.query, id))
	s.touch(f.Type)
}

func (s *State) filtersOfType(t domain.FilterType) []domain.Filter {
	var out []domain.Filter
	for _, id := range s.order {
		if f := s.filters[id]; f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

func (s *State) firstOfType(t domain.FilterType) (domain.Filter, bool) {
	for _, id := range s.order {
		if f := s.filters[id]; f.Type == t {
			return f, true
		}
	}
	return domain.Filter{}, false
}

func (s *State) elementsOf(filterID int) []domain.QueryElement {
	var out []domain.QueryElement
	for _, qe := range s.query {
		if qe.FilterID == filterID {
			out = append(out, qe)
		}
	}
	return out
}

func (s *State) isActive(filterID int) bool {
	for _, qe := range s.query {
		if qe.FilterID == filterID {
			return true
		}
	}
	return false
}

// setQuery replaces the query and bumps the revisions of every filter type
// whose activations changed.
func (s *State) setQuery(next []domain.QueryElement) {
	before := groupByFilter(s.query)
	after := groupByFilter(next)
	for id := range union(before, after) {
		if equalElements(before[id], after[id]) {
			continue
		}
		if f, ok := s.filters[id]; ok {
			s.touch(f.Type)
		}
	}
	if !equalElements(s.query, next) {
		s.queryRev++
	}
	s.query = next
}

func (s *State) appendQuery(elems ...domain.QueryElement) {
	next := make([]domain.QueryElement, 0, len(s.query)+len(elems))
	next = append(next, s.query...)
	s.setQuery(append(next, elems...))
}

func groupByFilter(q []domain.QueryElement) map[int][]domain.QueryElement {
	out := make(map[int][]domain.QueryElement)
	for _, qe := range q {
		out[qe.FilterID] = append(out[qe.FilterID], qe)
	}
	return out
}

func union(a, b map[int][]domain.QueryElement) map[int]struct{} {
	out := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func equalElements(a, b []domain.QueryElement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func withoutFilter(q []domain.QueryElement, filterID int) []domain.QueryElement {
	out := make([]domain.QueryElement, 0, len(q))
	for _, qe := range q {
		if qe.FilterID != filterID {
			out = append(out, qe)
		}
	}
	return out
}

func withoutGroup(q []domain.QueryElement, groupID int) []domain.QueryElement {
	out := make([]domain.QueryElement, 0, len(q))
	for _, qe := range q {
		if qe.GroupID != groupID {
			out = append(out, qe)
		}
	}
	return out
}
