package domain

// FilterType identifies the kind of a control panel filter.
type FilterType string

// Available filter types.
const (
	// FilterTypeField is a searchable field (autocomplete facet).
	FilterTypeField FilterType = "field"

	// FilterTypeFilter is a predefined or user-authored domain.
	FilterTypeFilter FilterType = "filter"

	// FilterTypeGroupBy groups records by a field, optionally by interval.
	FilterTypeGroupBy FilterType = "groupBy"

	// FilterTypeFavorite is a stored query that replaces the current one.
	FilterTypeFavorite FilterType = "favorite"

	// FilterTypeTimeRange restricts and optionally compares a date field.
	FilterTypeTimeRange FilterType = "timeRange"
)

// IsValid returns true if the filter type is recognised.
func (t FilterType) IsValid() bool {
	switch t {
	case FilterTypeField, FilterTypeFilter, FilterTypeGroupBy, FilterTypeFavorite, FilterTypeTimeRange:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t FilterType) String() string {
	return string(t)
}

// AllFilterTypes returns every filter type in menu order.
func AllFilterTypes() []FilterType {
	return []FilterType{
		FilterTypeField,
		FilterTypeFilter,
		FilterTypeGroupBy,
		FilterTypeFavorite,
		FilterTypeTimeRange,
	}
}

// FilterOption is a selectable sub-option of a filter, such as a month of a
// date filter or an interval of a date group-by.
type FilterOption struct {
	OptionID    string `json:"optionId"`
	GroupNumber int    `json:"groupNumber"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// OrderBy is one sort criterion.
type OrderBy struct {
	Name string `json:"name"`
	Asc  bool   `json:"asc"`
}

// Filter is a normalized unit of search state.
// IsActive and the Options' IsActive flags are derived from the current
// query and are only filled on copies returned by getters.
type Filter struct {
	ID          int        `json:"id"`
	Type        FilterType `json:"type"`
	GroupID     int        `json:"groupId"`
	GroupNumber int        `json:"groupNumber"`
	Description string     `json:"description"`
	IsActive    bool       `json:"isActive"`
	IsDefault   bool       `json:"isDefault,omitempty"`
	DefaultRank int        `json:"defaultRank,omitempty"`
	Invisible   bool       `json:"invisible,omitempty"`

	Context map[string]any `json:"context,omitempty"`

	// filter
	Domain Domain `json:"domain,omitempty"`

	// field, groupBy and date filters
	FieldName    string `json:"fieldName,omitempty"`
	FieldType    string `json:"fieldType,omitempty"`
	Operator     string `json:"operator,omitempty"`
	FilterDomain Domain `json:"filterDomain,omitempty"`

	// DefaultValue seeds a field filter at construction.
	DefaultValue any `json:"defaultValue,omitempty"`

	// Options are offered by date filters and date group-bys.
	HasOptions      bool           `json:"hasOptions,omitempty"`
	DefaultOptionID string         `json:"defaultOptionId,omitempty"`
	Options         []FilterOption `json:"options,omitempty"`

	// favorite
	GroupBys     []string  `json:"groupBys,omitempty"`
	OrderedBy    []OrderBy `json:"orderedBy,omitempty"`
	ServerSideID int       `json:"serverSideId,omitempty"`
	UserID       int       `json:"userId,omitempty"`
	Removable    bool      `json:"removable,omitempty"`

	// timeRange
	RangeID           string `json:"rangeId,omitempty"`
	ComparisonRangeID string `json:"comparisonRangeId,omitempty"`

	// AutocompleteValues holds the values selected on a field filter.
	AutocompleteValues []AutocompleteValue `json:"autocompleteValues,omitempty"`
}

// Clone returns a deep copy of the filter.
func (f Filter) Clone() Filter {
	c := f
	c.Context = CloneContext(f.Context)
	c.Domain = f.Domain.Clone()
	c.FilterDomain = f.FilterDomain.Clone()
	c.Options = append([]FilterOption(nil), f.Options...)
	c.GroupBys = append([]string(nil), f.GroupBys...)
	c.OrderedBy = append([]OrderBy(nil), f.OrderedBy...)
	c.AutocompleteValues = append([]AutocompleteValue(nil), f.AutocompleteValues...)
	return c
}

// Option returns the option with the given id.
func (f Filter) Option(optionID string) (FilterOption, bool) {
	for _, o := range f.Options {
		if o.OptionID == optionID {
			return o, true
		}
	}
	return FilterOption{}, false
}

// QueryElement records one activation in the query. Filters with options
// have one element per active option; field filters one per selected value;
// the timeRange filter carries its configuration.
type QueryElement struct {
	FilterID int `json:"filterId"`
	GroupID  int `json:"groupId"`

	OptionID string `json:"optionId,omitempty"`

	Label    string `json:"label,omitempty"`
	Value    any    `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"`

	FieldName         string `json:"fieldName,omitempty"`
	RangeID           string `json:"rangeId,omitempty"`
	ComparisonRangeID string `json:"comparisonRangeId,omitempty"`
}

// AutocompleteValue is one suggestion for a field filter.
type AutocompleteValue struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// PreFilter describes a filter to create at runtime. Either Domain is set,
// or Field, Operator and Value describe a single condition.
type PreFilter struct {
	Description string         `json:"description"`
	Domain      Domain         `json:"domain,omitempty"`
	Field       string         `json:"field,omitempty"`
	Operator    string         `json:"operator,omitempty"`
	Value       any            `json:"value,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// Facet is the chip representation of one active group.
type Facet struct {
	GroupID   int        `json:"groupId"`
	Type      FilterType `json:"type"`
	Title     string     `json:"title,omitempty"`
	Separator string     `json:"separator"`
	Values    []string   `json:"values"`
}

// CloneContext returns a shallow copy of a context map.
func CloneContext(ctx map[string]any) map[string]any {
	if ctx == nil {
		return nil
	}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
