package controlpanel

import (
	"fmt"
	"time"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func startOfQuarter(t time.Time) time.Time {
	q := (int(t.Month()) - 1) / 3
	return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, t.Location())
}

// span is a half-open interval [start, end) with the calendar step used to
// shift it to the previous period.
type span struct {
	start  time.Time
	end    time.Time
	years  int
	months int
	days   int
}

func (s span) shift(years, months, days int) span {
	return span{
		start:  s.start.AddDate(years, months, days),
		end:    s.end.AddDate(years, months, days),
		years:  s.years,
		months: s.months,
		days:   s.days,
	}
}

// rangeSpan resolves a time range id against now.
func rangeSpan(now time.Time, rangeID string) (span, error) {
	today := startOfDay(now)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	week := startOfWeek(now)
	quarter := startOfQuarter(now)

	switch rangeID {
	case "last_7_days":
		return span{start: today.AddDate(0, 0, -7), end: today, days: 7}, nil
	case "last_30_days":
		return span{start: today.AddDate(0, 0, -30), end: today, days: 30}, nil
	case "last_365_days":
		return span{start: today.AddDate(0, 0, -365), end: today, days: 365}, nil
	case "last_5_years":
		return span{start: today.AddDate(-5, 0, 0), end: today, years: 5}, nil
	case "today":
		return span{start: today, end: today.AddDate(0, 0, 1), days: 1}, nil
	case "this_week":
		return span{start: week, end: week.AddDate(0, 0, 7), days: 7}, nil
	case "this_month":
		return span{start: month, end: month.AddDate(0, 1, 0), months: 1}, nil
	case "this_quarter":
		return span{start: quarter, end: quarter.AddDate(0, 3, 0), months: 3}, nil
	case "this_year":
		return span{start: year, end: year.AddDate(1, 0, 0), years: 1}, nil
	case "yesterday":
		return span{start: today.AddDate(0, 0, -1), end: today, days: 1}, nil
	case "last_week":
		return span{start: week.AddDate(0, 0, -7), end: week, days: 7}, nil
	case "last_month":
		return span{start: month.AddDate(0, -1, 0), end: month, months: 1}, nil
	case "last_quarter":
		return span{start: quarter.AddDate(0, -3, 0), end: quarter, months: 3}, nil
	case "last_year":
		return span{start: year.AddDate(-1, 0, 0), end: year, years: 1}, nil
	default:
		return span{}, fmt.Errorf("%w: time range %q", domain.ErrInvalidInput, rangeID)
	}
}

// comparisonSpan shifts s to the comparison period.
func comparisonSpan(s span, comparisonRangeID string) (span, error) {
	switch comparisonRangeID {
	case "previous_period":
		return s.shift(-s.years, -s.months, -s.days), nil
	case "previous_year":
		return s.shift(-1, 0, 0), nil
	default:
		return span{}, fmt.Errorf("%w: comparison range %q", domain.ErrInvalidInput, comparisonRangeID)
	}
}

func spanDomain(fieldName, fieldType string, s span) domain.Domain {
	lower := s.start
	upper := s.end
	var lo, hi string
	if fieldType == "date" {
		lo, hi = lower.Format(dateLayout), upper.Format(dateLayout)
	} else {
		lo, hi = lower.UTC().Format(datetimeLayout), upper.UTC().Format(datetimeLayout)
	}
	return domain.And(
		domain.Leaf(fieldName, ">=", lo),
		domain.Leaf(fieldName, "<", hi),
	)
}

// resolveTimeRanges builds the query time ranges for a field and range ids.
func resolveTimeRanges(now time.Time, field domain.FieldMeta, rangeID, comparisonRangeID string) (*domain.TimeRanges, error) {
	opt, ok := findRange(TimeRangeOptions, rangeID)
	if !ok {
		return nil, fmt.Errorf("%w: time range %q", domain.ErrInvalidInput, rangeID)
	}
	s, err := rangeSpan(now, rangeID)
	if err != nil {
		return nil, err
	}
	tr := &domain.TimeRanges{
		FieldName:        field.Name,
		RangeID:          rangeID,
		Range:            spanDomain(field.Name, field.Type, s),
		RangeDescription: opt.Description,
	}
	if comparisonRangeID == "" {
		return tr, nil
	}
	cmp, ok := findRange(ComparisonRangeOptions, comparisonRangeID)
	if !ok {
		return nil, fmt.Errorf("%w: comparison range %q", domain.ErrInvalidInput, comparisonRangeID)
	}
	cs, err := comparisonSpan(s, comparisonRangeID)
	if err != nil {
		return nil, err
	}
	tr.ComparisonRangeID = comparisonRangeID
	tr.ComparisonRange = spanDomain(field.Name, field.Type, cs)
	tr.ComparisonRangeDescription = cmp.Description
	return tr, nil
}
