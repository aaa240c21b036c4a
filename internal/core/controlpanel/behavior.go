package controlpanel

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/patch"
)

// Activity is one active filter together with the query elements that
// activate it.
type Activity struct {
	Filter   domain.Filter
	Elements []domain.QueryElement
}

// OptionIDs returns the option ids of the activity's elements.
func (a Activity) OptionIDs() []string {
	out := make([]string, 0, len(a.Elements))
	for _, qe := range a.Elements {
		if qe.OptionID != "" {
			out = append(out, qe.OptionID)
		}
	}
	return out
}

// Group is the set of activities sharing a group id, in activation order.
type Group struct {
	ID         int
	Type       domain.FilterType
	Activities []Activity
}

// Behavior is the patchable table of functions deriving the query and
// facets from the active groups. Patches registered on Behaviors apply to
// every model; Model.Patch applies to one model only.
type Behavior struct {
	// FilterDomain is the domain contributed by one active filter.
	FilterDomain func(ev *Evaluation, a Activity) domain.Domain

	// FilterContext is the context contributed by one active filter.
	FilterContext func(ev *Evaluation, a Activity) map[string]any

	// FilterGroupBys are the group-bys contributed by one active filter.
	FilterGroupBys func(ev *Evaluation, a Activity) []string

	// FacetValue is the label of one active filter inside its facet.
	FacetValue func(ev *Evaluation, a Activity) []string

	// Query assembles the full query.
	Query func(ev *Evaluation) (domain.Query, error)

	// Facets assembles one facet per active group.
	Facets func(ev *Evaluation) []domain.Facet

	// Enrich fills the derived flags and options of a filter handed to
	// getters and selectors.
	Enrich func(ev *Evaluation, f domain.Filter) domain.Filter
}

// Behaviors is the class-level behaviour shared by all models.
var Behaviors = patch.NewClass(DefaultBehavior())

// DefaultBehavior returns the unpatched behaviour.
func DefaultBehavior() Behavior {
	return Behavior{
		FilterDomain:   defaultFilterDomain,
		FilterContext:  defaultFilterContext,
		FilterGroupBys: defaultFilterGroupBys,
		FacetValue:     defaultFacetValue,
		Query:          defaultQuery,
		Facets:         defaultFacets,
		Enrich:         defaultEnrich,
	}
}

// Evaluation is the read-only context handed to behaviours.
type Evaluation struct {
	State    State
	Groups   []Group
	env      *env
	behavior Behavior
}

func (e *env) evaluate(st State, b Behavior) *Evaluation {
	return &Evaluation{State: st, Groups: groups(st), env: e, behavior: b}
}

// Behavior returns the resolved behaviour in use, so one function can
// call another through its patches.
func (ev *Evaluation) Behavior() Behavior {
	return ev.behavior
}

// Field returns the metadata of a field of the searched model.
func (ev *Evaluation) Field(name string) (domain.FieldMeta, bool) {
	f, ok := ev.env.fields[name]
	return f, ok
}

// Model returns the searched model name.
func (ev *Evaluation) Model() string {
	return ev.env.model
}

// ActionContext returns a copy of the action context without search defaults.
func (ev *Evaluation) ActionContext() map[string]any {
	return domain.CloneContext(ev.env.actionContext)
}

// ActionDomain returns the domain every query is restricted to.
func (ev *Evaluation) ActionDomain() domain.Domain {
	return ev.env.actionDomain
}

// Now returns the reference time of date options.
func (ev *Evaluation) Now() time.Time {
	return ev.env.periods.now
}

func contributes(t domain.FilterType) bool {
	return t == domain.FilterTypeFilter || t == domain.FilterTypeFavorite || t == domain.FilterTypeField
}

// GroupsDomain ANDs the group domains, each the OR of its filters' domains.
// The action domain is not included.
func (ev *Evaluation) GroupsDomain() domain.Domain {
	var domains []domain.Domain
	for _, g := range ev.Groups {
		if !contributes(g.Type) {
			continue
		}
		var parts []domain.Domain
		for _, a := range g.Activities {
			parts = append(parts, ev.behavior.FilterDomain(ev, a))
		}
		domains = append(domains, domain.Or(parts...))
	}
	return domain.And(domains...)
}

// GroupsContext merges the contexts of the active filters, optionally on
// top of the action context.
func (ev *Evaluation) GroupsContext(withAction bool) map[string]any {
	ctx := map[string]any{}
	if withAction {
		for k, v := range ev.env.actionContext {
			ctx[k] = v
		}
	}
	for _, g := range ev.Groups {
		if !contributes(g.Type) {
			continue
		}
		for _, a := range g.Activities {
			for k, v := range ev.behavior.FilterContext(ev, a) {
				ctx[k] = v
			}
		}
	}
	return ctx
}

// GroupBys returns the active group-bys in activation order, falling back
// to the action context.
func (ev *Evaluation) GroupBys() []string {
	var out []string
	for _, g := range ev.Groups {
		if g.Type != domain.FilterTypeGroupBy && g.Type != domain.FilterTypeFavorite {
			continue
		}
		for _, a := range g.Activities {
			out = append(out, ev.behavior.FilterGroupBys(ev, a)...)
		}
	}
	if len(out) == 0 {
		return domain.ContextGroupBys(ev.env.actionContext)
	}
	return out
}

// OrderedBy returns the ordering of the active favorites. Later favorites
// sort first; each favorite keeps its own order.
func (ev *Evaluation) OrderedBy() []domain.OrderBy {
	var out []domain.OrderBy
	for _, g := range ev.Groups {
		if g.Type != domain.FilterTypeFavorite || len(g.Activities) == 0 {
			continue
		}
		fav := g.Activities[0].Filter.OrderedBy
		if len(fav) > 0 {
			out = append(append([]domain.OrderBy(nil), fav...), out...)
		}
	}
	return out
}

// TimeRanges returns the last time range found in the query, from either
// the timeRange filter or a favorite carrying one.
func (ev *Evaluation) TimeRanges() (*domain.TimeRanges, error) {
	var fieldName, rangeID, comparisonID string
	for _, qe := range ev.State.query {
		f, ok := ev.State.filters[qe.FilterID]
		if !ok {
			continue
		}
		switch {
		case f.Type == domain.FilterTypeTimeRange:
			fieldName, rangeID, comparisonID = qe.FieldName, qe.RangeID, qe.ComparisonRangeID
		case f.Type == domain.FilterTypeFavorite && f.RangeID != "":
			fieldName, rangeID, comparisonID = f.FieldName, f.RangeID, f.ComparisonRangeID
		}
	}
	if rangeID == "" {
		return nil, nil
	}
	return ev.env.timeRanges(fieldName, rangeID, comparisonID)
}

// Enrich returns a copy of f with its derived flags and options filled in.
func (ev *Evaluation) Enrich(f domain.Filter) domain.Filter {
	return ev.behavior.Enrich(ev, f.Clone())
}

// filtersOfType returns enriched copies of the filters of type t in
// insertion order. Invisible filters are included.
func (ev *Evaluation) filtersOfType(t domain.FilterType) []domain.Filter {
	var out []domain.Filter
	for _, f := range ev.State.filtersOfType(t) {
		out = append(out, ev.Enrich(f))
	}
	return out
}

func defaultEnrich(ev *Evaluation, f domain.Filter) domain.Filter {
	return ev.env.enrich(f, ev.State.elementsOf(f.ID))
}

func groups(st State) []Group {
	var out []Group
	index := map[int]int{}
	for _, qe := range st.query {
		stored, ok := st.filters[qe.FilterID]
		if !ok {
			continue
		}
		f := stored.Clone()
		i, seen := index[qe.GroupID]
		if !seen {
			i = len(out)
			index[qe.GroupID] = i
			out = append(out, Group{ID: qe.GroupID, Type: f.Type})
		}
		g := &out[i]
		switch g.Type {
		case domain.FilterTypeGroupBy:
			g.Activities = append(g.Activities, Activity{Filter: f, Elements: []domain.QueryElement{qe}})
		default:
			merged := false
			for j := range g.Activities {
				if g.Activities[j].Filter.ID == f.ID {
					g.Activities[j].Elements = append(g.Activities[j].Elements, qe)
					merged = true
					break
				}
			}
			if !merged {
				g.Activities = append(g.Activities, Activity{Filter: f, Elements: []domain.QueryElement{qe}})
			}
		}
	}
	return out
}

func defaultFilterDomain(ev *Evaluation, a Activity) domain.Domain {
	f := a.Filter
	switch {
	case f.Type == domain.FilterTypeFilter && f.HasOptions:
		return ev.env.periods.dateFilterDomain(f.FieldName, f.FieldType, a.OptionIDs())
	case f.Type == domain.FilterTypeField:
		var parts []domain.Domain
		for _, qe := range a.Elements {
			if len(f.FilterDomain) > 0 {
				parts = append(parts, f.FilterDomain.Substitute(qe.Value))
				continue
			}
			parts = append(parts, domain.Leaf(f.FieldName, qe.Operator, qe.Value))
		}
		return domain.Or(parts...)
	default:
		return f.Domain
	}
}

func defaultFilterContext(_ *Evaluation, a Activity) map[string]any {
	f := a.Filter
	ctx := domain.CloneContext(f.Context)
	if f.Type != domain.FilterTypeField {
		return ctx
	}
	values := make([]any, 0, len(a.Elements))
	for _, qe := range a.Elements {
		values = append(values, qe.Value)
	}
	for k, v := range ctx {
		if s, ok := v.(string); ok && s == domain.SelfPlaceholder {
			ctx[k] = values
		}
	}
	if f.IsDefault && f.FieldType == "many2one" && f.DefaultValue != nil {
		if ctx == nil {
			ctx = map[string]any{}
		}
		ctx["default_"+f.FieldName] = f.DefaultValue
	}
	return ctx
}

func defaultFilterGroupBys(_ *Evaluation, a Activity) []string {
	f := a.Filter
	if f.Type != domain.FilterTypeGroupBy {
		return f.GroupBys
	}
	groupBy := f.FieldName
	if len(a.Elements) > 0 && a.Elements[0].OptionID != "" {
		groupBy += ":" + a.Elements[0].OptionID
	}
	return []string{groupBy}
}

func defaultFacetValue(ev *Evaluation, a Activity) []string {
	f := ev.env.enrich(a.Filter, a.Elements)
	switch f.Type {
	case domain.FilterTypeTimeRange:
		desc := f.FieldName
		if field, ok := ev.Field(f.FieldName); ok && field.String != "" {
			desc = field.String
		}
		label := desc
		if r, ok := findRange(TimeRangeOptions, f.RangeID); ok {
			label += ": " + r.Description
		}
		if c, ok := findRange(ComparisonRangeOptions, f.ComparisonRangeID); ok {
			label += " / " + c.Description
		}
		return []string{label}
	case domain.FilterTypeField:
		labels := make([]string, 0, len(f.AutocompleteValues))
		for _, v := range f.AutocompleteValues {
			labels = append(labels, v.Label)
		}
		return labels
	}
	if !f.HasOptions {
		return []string{f.Description}
	}
	var detail string
	if f.Type == domain.FilterTypeFilter {
		detail = ev.env.periods.dateFilterDescription(a.OptionIDs())
	} else {
		var active []string
		for _, o := range f.Options {
			if o.IsActive {
				active = append(active, o.Description)
			}
		}
		detail = strings.Join(active, " / ")
	}
	return []string{fmt.Sprintf("%s: %s", f.Description, detail)}
}

func facetSeparator(t domain.FilterType) string {
	switch t {
	case domain.FilterTypeFilter, domain.FilterTypeField:
		return "or"
	case domain.FilterTypeGroupBy:
		return ">"
	default:
		return ""
	}
}

func defaultFacets(ev *Evaluation) []domain.Facet {
	facets := make([]domain.Facet, 0, len(ev.Groups))
	for _, g := range ev.Groups {
		facet := domain.Facet{GroupID: g.ID, Type: g.Type, Separator: facetSeparator(g.Type)}
		for _, a := range g.Activities {
			if g.Type == domain.FilterTypeField {
				facet.Title = a.Filter.Description
			}
			facet.Values = append(facet.Values, ev.behavior.FacetValue(ev, a)...)
		}
		facets = append(facets, facet)
	}
	return facets
}

func defaultQuery(ev *Evaluation) (domain.Query, error) {
	timeRanges, err := ev.TimeRanges()
	if err != nil {
		return domain.Query{}, err
	}
	return domain.Query{
		Domain:     domain.And(ev.ActionDomain(), ev.GroupsDomain()),
		Context:    ev.GroupsContext(true),
		GroupBy:    ev.GroupBys(),
		OrderedBy:  ev.OrderedBy(),
		TimeRanges: timeRanges,
	}, nil
}
