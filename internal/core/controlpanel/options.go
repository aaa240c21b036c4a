package controlpanel

import "github.com/custodia-labs/cpanel/internal/core/domain"

// Defaults applied when an arch element does not name its own.
const (
	DefaultPeriod   = "this_month"
	DefaultInterval = "month"
)

// Favorites are split into private and shared groups.
const (
	FavoritePrivateGroup = 1
	FavoriteSharedGroup  = 2
)

// Period option group numbers. Options of one group are exclusive
// within a date filter; a month or quarter needs a year to be meaningful.
const (
	periodGroupSub  = 1
	periodGroupYear = 2
)

type granularity int

const (
	granularityMonth granularity = iota
	granularityQuarter
	granularityYear
)

// periodDef is the static description of a date filter option.
type periodDef struct {
	id          string
	groupNumber int
	granularity granularity
	// monthOffset or yearOffset is applied to the reference time.
	monthOffset int
	yearOffset  int
	// quarter is fixed for quarter options.
	quarter int
}

// periodDefs are listed in display (and facet sort) order.
var periodDefs = []periodDef{
	{id: "this_month", groupNumber: periodGroupSub, granularity: granularityMonth},
	{id: "last_month", groupNumber: periodGroupSub, granularity: granularityMonth, monthOffset: -1},
	{id: "antepenultimate_month", groupNumber: periodGroupSub, granularity: granularityMonth, monthOffset: -2},
	{id: "fourth_quarter", groupNumber: periodGroupSub, granularity: granularityQuarter, quarter: 4},
	{id: "third_quarter", groupNumber: periodGroupSub, granularity: granularityQuarter, quarter: 3},
	{id: "second_quarter", groupNumber: periodGroupSub, granularity: granularityQuarter, quarter: 2},
	{id: "first_quarter", groupNumber: periodGroupSub, granularity: granularityQuarter, quarter: 1},
	{id: "this_year", groupNumber: periodGroupYear, granularity: granularityYear},
	{id: "last_year", groupNumber: periodGroupYear, granularity: granularityYear, yearOffset: -1},
	{id: "antepenultimate_year", groupNumber: periodGroupYear, granularity: granularityYear, yearOffset: -2},
}

// IntervalOptions are the options of a date group-by.
var IntervalOptions = []domain.FilterOption{
	{OptionID: "year", GroupNumber: 1, Description: "Year"},
	{OptionID: "quarter", GroupNumber: 1, Description: "Quarter"},
	{OptionID: "month", GroupNumber: 1, Description: "Month"},
	{OptionID: "week", GroupNumber: 1, Description: "Week"},
	{OptionID: "day", GroupNumber: 1, Description: "Day"},
}

// RangeOption describes a time range or comparison range.
type RangeOption struct {
	ID          string
	Description string
	GroupNumber int
}

// TimeRangeOptions lists the selectable time ranges.
var TimeRangeOptions = []RangeOption{
	{ID: "last_7_days", Description: "Last 7 Days", GroupNumber: 1},
	{ID: "last_30_days", Description: "Last 30 Days", GroupNumber: 1},
	{ID: "last_365_days", Description: "Last 365 Days", GroupNumber: 1},
	{ID: "last_5_years", Description: "Last 5 Years", GroupNumber: 1},
	{ID: "today", Description: "Today", GroupNumber: 2},
	{ID: "this_week", Description: "This Week", GroupNumber: 2},
	{ID: "this_month", Description: "This Month", GroupNumber: 2},
	{ID: "this_quarter", Description: "This Quarter", GroupNumber: 2},
	{ID: "this_year", Description: "This Year", GroupNumber: 2},
	{ID: "yesterday", Description: "Yesterday", GroupNumber: 3},
	{ID: "last_week", Description: "Last Week", GroupNumber: 3},
	{ID: "last_month", Description: "Last Month", GroupNumber: 3},
	{ID: "last_quarter", Description: "Last Quarter", GroupNumber: 3},
	{ID: "last_year", Description: "Last Year", GroupNumber: 3},
}

// ComparisonRangeOptions lists the ranges a time range can be compared to.
var ComparisonRangeOptions = []RangeOption{
	{ID: "previous_period", Description: "Previous Period"},
	{ID: "previous_year", Description: "Previous Year"},
}

func findRange(options []RangeOption, id string) (RangeOption, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return RangeOption{}, false
}

// FieldOperator is one operator offered for user-authored conditions.
// When Value is set, the operator takes no user value.
type FieldOperator struct {
	Symbol      string
	Description string
	Value       any
}

var (
	setOperators = []FieldOperator{
		{Symbol: "!=", Description: "is set", Value: false},
		{Symbol: "=", Description: "is not set", Value: false},
	}
	compareOperators = []FieldOperator{
		{Symbol: "=", Description: "is equal to"},
		{Symbol: "!=", Description: "is not equal to"},
	}
)

// FieldOperators maps an operator family to its operators.
var FieldOperators = map[string][]FieldOperator{
	"boolean": {
		{Symbol: "=", Description: "is true", Value: true},
		{Symbol: "!=", Description: "is false", Value: true},
	},
	"char": append([]FieldOperator{
		{Symbol: "ilike", Description: "contains"},
		{Symbol: "not ilike", Description: "doesn't contain"},
	}, append(compareOperators, setOperators...)...),
	"date": append(append(compareOperators,
		FieldOperator{Symbol: ">", Description: "is after"},
		FieldOperator{Symbol: "<", Description: "is before"},
		FieldOperator{Symbol: ">=", Description: "is after or equal to"},
		FieldOperator{Symbol: "<=", Description: "is before or equal to"},
		FieldOperator{Symbol: "between", Description: "is between"},
	), setOperators...),
	"datetime": append(append([]FieldOperator{
		{Symbol: "between", Description: "is between"},
	}, compareOperators...),
		append([]FieldOperator{
			{Symbol: ">", Description: "is after"},
			{Symbol: "<", Description: "is before"},
			{Symbol: ">=", Description: "is after or equal to"},
			{Symbol: "<=", Description: "is before or equal to"},
		}, setOperators...)...),
	"id": {
		{Symbol: "=", Description: "is"},
	},
	"number": append(append(compareOperators,
		FieldOperator{Symbol: ">", Description: "greater than"},
		FieldOperator{Symbol: "<", Description: "less than"},
		FieldOperator{Symbol: ">=", Description: "greater than or equal to"},
		FieldOperator{Symbol: "<=", Description: "less than or equal to"},
	), setOperators...),
	"selection": append([]FieldOperator{
		{Symbol: "=", Description: "is"},
		{Symbol: "!=", Description: "is not"},
	}, setOperators...),
}

// operatorFamily maps a field type to its FieldOperators family.
var operatorFamily = map[string]string{
	"boolean":   "boolean",
	"char":      "char",
	"date":      "date",
	"datetime":  "datetime",
	"float":     "number",
	"id":        "id",
	"integer":   "number",
	"html":      "char",
	"many2many": "char",
	"many2one":  "char",
	"monetary":  "number",
	"one2many":  "char",
	"text":      "char",
	"selection": "selection",
}

// OperatorsFor returns the operators allowed on a field type.
func OperatorsFor(fieldType string) ([]FieldOperator, bool) {
	family, ok := operatorFamily[fieldType]
	if !ok {
		return nil, false
	}
	return FieldOperators[family], true
}

// GroupableTypes lists the field types a group-by can use.
var GroupableTypes = []string{"many2one", "char", "boolean", "selection", "date", "datetime", "integer"}

// IsGroupable reports whether a field of the given type can be grouped on.
func IsGroupable(fieldType string) bool {
	for _, t := range GroupableTypes {
		if t == fieldType {
			return true
		}
	}
	return false
}

func isDateType(fieldType string) bool {
	return fieldType == "date" || fieldType == "datetime"
}
