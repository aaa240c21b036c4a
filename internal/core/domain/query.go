package domain

// Query is the derived, read-only result of the active filters.
type Query struct {
	Domain     Domain         `json:"domain"`
	Context    map[string]any `json:"context"`
	GroupBy    []string       `json:"groupBy"`
	OrderedBy  []OrderBy      `json:"orderedBy"`
	TimeRanges *TimeRanges    `json:"timeRanges,omitempty"`
}

// Clone returns a deep copy of the query.
func (q Query) Clone() Query {
	c := q
	c.Domain = q.Domain.Clone()
	c.Context = CloneContext(q.Context)
	c.GroupBy = append([]string(nil), q.GroupBy...)
	c.OrderedBy = append([]OrderBy(nil), q.OrderedBy...)
	if q.TimeRanges != nil {
		tr := *q.TimeRanges
		tr.Range = q.TimeRanges.Range.Clone()
		tr.ComparisonRange = q.TimeRanges.ComparisonRange.Clone()
		c.TimeRanges = &tr
	}
	return c
}

// TimeRanges describes the active time range and its optional comparison.
type TimeRanges struct {
	FieldName                  string `json:"fieldName"`
	RangeID                    string `json:"rangeId"`
	Range                      Domain `json:"range"`
	RangeDescription           string `json:"rangeDescription"`
	ComparisonRangeID          string `json:"comparisonRangeId,omitempty"`
	ComparisonRange            Domain `json:"comparisonRange,omitempty"`
	ComparisonRangeDescription string `json:"comparisonRangeDescription,omitempty"`
}

// HasComparison reports whether a comparison range is set.
func (t *TimeRanges) HasComparison() bool {
	return t != nil && t.ComparisonRangeID != ""
}
