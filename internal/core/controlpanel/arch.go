package controlpanel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// Default ranks used to order the activation of default filters.
const (
	rankField   = -10
	rankFilter  = -5
	rankGroupBy = 100
)

// preFilter is an arch node once its context and defaults are evaluated.
type preFilter struct {
	kind            domain.FilterType
	attrs           map[string]string
	context         map[string]any
	fieldName       string
	defaultInterval string
	isDefault       bool
	defaultValue    any
	defaultRank     int
	hasRank         bool
	separator       bool
}

// build creates the filters of a fresh state and activates the defaults.
func (e *env) build(st *State, favorites []domain.StoredFavorite) error {
	if err := e.addArchFilters(st); err != nil {
		return err
	}
	if err := e.addDynamicFilters(st); err != nil {
		return err
	}
	for _, fav := range favorites {
		if fav.Model != "" && fav.Model != e.model {
			continue
		}
		f := favoriteFilter(fav)
		f.GroupID = st.newGroup()
		st.addFilter(f)
	}
	st.addFilter(domain.Filter{
		Type:        domain.FilterTypeTimeRange,
		GroupID:     st.newGroup(),
		GroupNumber: st.newGroupNumber(),
		Description: "Time Range",
	})
	return e.activateDefaults(st)
}

// addArchFilters walks the arch. Consecutive nodes of the same kind share
// a group; separators and field nodes close it. Group-bys are collected
// into one group created after the walk.
func (e *env) addArchFilters(st *State) error {
	var (
		current  []preFilter
		groupBys []preFilter
	)
	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		err := e.addGroup(st, current)
		current = nil
		return err
	}

	for i, node := range e.view.Arch {
		pre, err := e.evalArchNode(node)
		if err != nil {
			return fmt.Errorf("arch node %d: %w", i, err)
		}
		if pre.separator {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if pre.kind == domain.FilterTypeGroupBy {
			groupBys = append(groupBys, pre)
			continue
		}
		if len(current) > 0 && (current[0].kind != pre.kind || pre.kind == domain.FilterTypeField) {
			if err := flush(); err != nil {
				return err
			}
		}
		current = append(current, pre)
	}
	if err := flush(); err != nil {
		return err
	}
	if len(groupBys) > 0 {
		return e.addGroup(st, groupBys)
	}
	return nil
}

func (e *env) evalArchNode(node domain.ArchNode) (preFilter, error) {
	if !node.Kind.IsValid() {
		return preFilter{}, fmt.Errorf("%w: arch node kind %q", domain.ErrInvalidInput, node.Kind)
	}
	pre := preFilter{attrs: node.Attrs}
	switch node.Kind {
	case domain.ArchSeparator:
		pre.separator = true
		return pre, nil
	case domain.ArchField:
		pre.kind = domain.FilterTypeField
	case domain.ArchFilter:
		pre.kind = domain.FilterTypeFilter
	case domain.ArchGroupBy:
		pre.kind = domain.FilterTypeGroupBy
		pre.fieldName = node.Attr("field")
	}

	if raw := node.Attr("context"); raw != "" {
		ctx, err := domain.ParseContext(raw)
		if err != nil {
			return preFilter{}, err
		}
		if groupBys := domain.ContextGroupBys(ctx); len(groupBys) > 0 && pre.kind != domain.FilterTypeField {
			pre.kind = domain.FilterTypeGroupBy
			pre.fieldName, pre.defaultInterval, _ = strings.Cut(groupBys[0], ":")
			delete(ctx, "group_by")
		}
		if len(ctx) > 0 {
			pre.context = ctx
		}
	}

	if name := node.Attr("name"); name != "" {
		if v, ok := e.searchDefaults[name]; ok && truthy(v) {
			pre.isDefault = true
			switch pre.kind {
			case domain.FilterTypeField:
				if list, ok := v.([]any); ok && len(list) > 0 {
					v = list[0]
				}
				pre.defaultValue = v
			case domain.FilterTypeGroupBy:
				pre.defaultRank, pre.hasRank = rankOf(v)
			}
		}
	}
	return pre, nil
}

func rankOf(v any) (int, bool) {
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return int(n), true
}

func (e *env) addGroup(st *State, pres []preFilter) error {
	groupID := st.newGroup()
	groupNumber := st.newGroupNumber()
	for _, pre := range pres {
		f, err := e.archFilter(pre)
		if err != nil {
			return err
		}
		f.GroupID = groupID
		f.GroupNumber = groupNumber
		st.addFilter(f)
	}
	return nil
}

// archFilter turns an evaluated arch node into a filter.
func (e *env) archFilter(pre preFilter) (domain.Filter, error) {
	attr := func(k string) string { return pre.attrs[k] }
	f := domain.Filter{
		Type:        pre.kind,
		IsDefault:   pre.isDefault,
		Invisible:   truthy(attr("invisible")),
		Context:     pre.context,
		Description: firstNonEmpty(attr("string"), attr("help"), attr("name"), attr("domain"), "Ω"),
	}
	if pre.isDefault {
		f.DefaultRank = pre.defaultRank
	}

	switch pre.kind {
	case domain.FilterTypeFilter:
		if !pre.hasRank {
			f.DefaultRank = rankFilter
		}
		if fieldName := attr("date"); fieldName != "" {
			field, ok := e.fields[fieldName]
			if !ok {
				return domain.Filter{}, fmt.Errorf("%w: filter %q: unknown date field %q", domain.ErrInvalidInput, f.Description, fieldName)
			}
			f.HasOptions = true
			f.FieldName = fieldName
			f.FieldType = field.Type
			f.DefaultOptionID = firstNonEmpty(attr("default_period"), DefaultPeriod)
			if _, ok := e.periods.find(f.DefaultOptionID); !ok {
				return domain.Filter{}, fmt.Errorf("%w: filter %q: unknown period %q", domain.ErrInvalidInput, f.Description, f.DefaultOptionID)
			}
			break
		}
		d, err := domain.ParseDomain(attr("domain"))
		if err != nil {
			return domain.Filter{}, fmt.Errorf("filter %q: %w", f.Description, err)
		}
		f.Domain = d

	case domain.FilterTypeGroupBy:
		if pre.isDefault && !pre.hasRank {
			f.DefaultRank = rankGroupBy
		}
		field, ok := e.fields[pre.fieldName]
		if !ok {
			return domain.Filter{}, fmt.Errorf("%w: group-by %q: unknown field %q", domain.ErrInvalidInput, f.Description, pre.fieldName)
		}
		f.FieldName = field.Name
		f.FieldType = field.Type
		if f.Description == "Ω" {
			f.Description = fieldLabel(field)
		}
		if isDateType(field.Type) {
			f.HasOptions = true
			f.DefaultOptionID = firstNonEmpty(pre.defaultInterval, DefaultInterval)
		}

	case domain.FilterTypeField:
		f.DefaultRank = rankField
		name := attr("name")
		field, ok := e.fields[name]
		if !ok {
			return domain.Filter{}, fmt.Errorf("%w: unknown search field %q", domain.ErrInvalidInput, name)
		}
		f.FieldName = field.Name
		f.FieldType = field.Type
		if attr("string") == "" {
			f.Description = fieldLabel(field)
		}
		if raw := attr("filter_domain"); raw != "" {
			d, err := domain.ParseDomain(raw)
			if err != nil {
				return domain.Filter{}, fmt.Errorf("field %q: %w", name, err)
			}
			f.FilterDomain = d
		} else {
			f.Operator = firstNonEmpty(attr("operator"), defaultOperator(field.Type))
		}
		if pre.isDefault {
			f.DefaultValue = pre.defaultValue
		}
	}
	return f, nil
}

func (e *env) addDynamicFilters(st *State) error {
	if len(e.view.DynamicFilters) == 0 {
		return nil
	}
	groupID := st.newGroup()
	groupNumber := st.newGroupNumber()
	for i, df := range e.view.DynamicFilters {
		if err := df.Domain.Validate(); err != nil {
			return fmt.Errorf("dynamic filter %d: %w", i, err)
		}
		st.addFilter(domain.Filter{
			Type:        domain.FilterTypeFilter,
			GroupID:     groupID,
			GroupNumber: groupNumber,
			Description: firstNonEmpty(df.Description, df.Domain.String()),
			Domain:      df.Domain,
			Context:     df.Context,
			IsDefault:   true,
			DefaultRank: rankFilter,
		})
	}
	return nil
}

// activateDefaults activates the first default favorite when allowed,
// otherwise the default filters by rank, then the time range requested by
// the action context.
func (e *env) activateDefaults(st *State) error {
	activated := false
	if e.activateFav {
		for _, f := range st.filtersOfType(domain.FilterTypeFavorite) {
			if f.IsDefault {
				st.appendQuery(domain.QueryElement{FilterID: f.ID, GroupID: f.GroupID})
				activated = true
				break
			}
		}
	}
	if !activated {
		var defaults []domain.Filter
		for _, id := range st.order {
			f := st.filters[id]
			if f.IsDefault && f.Type != domain.FilterTypeFavorite {
				defaults = append(defaults, f)
			}
		}
		sort.SliceStable(defaults, func(i, j int) bool {
			return rankOr100(defaults[i]) < rankOr100(defaults[j])
		})
		for _, f := range defaults {
			if err := e.activateDefault(st, f); err != nil {
				return err
			}
		}
	}

	tr, ok := e.actionContext["time_ranges"].(map[string]any)
	if !ok {
		return nil
	}
	fieldName, _ := tr["field"].(string)
	rangeID, _ := tr["range"].(string)
	comparisonID, _ := tr["comparisonRange"].(string)
	if err := e.activateTimeRange(st, fieldName, rangeID, comparisonID); err != nil {
		return fmt.Errorf("action time range: %w", err)
	}
	return nil
}

func rankOr100(f domain.Filter) int {
	if f.DefaultRank == 0 {
		return 100
	}
	return f.DefaultRank
}

func (e *env) activateDefault(st *State, f domain.Filter) error {
	switch {
	case f.HasOptions:
		return e.toggleFilterWithOptions(st, f.ID, "")
	case f.Type == domain.FilterTypeField:
		if f.DefaultValue == nil {
			return nil
		}
		return e.addAutoCompletionValues(st, AutocompleteSelection{
			FilterID: f.ID,
			Value:    f.DefaultValue,
			Label:    e.valueLabel(f, f.DefaultValue),
			Operator: "=",
		})
	default:
		return e.toggleFilter(st, f.ID)
	}
}

// valueLabel renders a field value for a facet.
func (e *env) valueLabel(f domain.Filter, v any) string {
	if field, ok := e.fields[f.FieldName]; ok && field.Type == "selection" {
		for _, s := range field.Selection {
			if fmt.Sprint(s.Value) == fmt.Sprint(v) {
				return s.Label
			}
		}
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// defaultOperator is the operator of a field filter without filter domain.
func defaultOperator(fieldType string) string {
	switch fieldType {
	case "char", "text", "html", "many2one", "many2many", "one2many":
		return "ilike"
	default:
		return "="
	}
}

func fieldLabel(field domain.FieldMeta) string {
	return firstNonEmpty(field.String, field.Name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
