package controlpanel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// period is a periodDef resolved against a reference time.
type period struct {
	periodDef
	description string
	month       time.Month
	year        int
	defaultYear int
}

// periods resolves date filter options against a fixed reference time.
type periods struct {
	now     time.Time
	options []period
}

func newPeriods(now time.Time) *periods {
	p := &periods{now: now}
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for _, def := range periodDefs {
		o := period{periodDef: def}
		switch def.granularity {
		case granularityMonth:
			d := firstOfMonth.AddDate(0, def.monthOffset, 0)
			o.month = d.Month()
			o.defaultYear = d.Year()
			o.description = d.Month().String()
		case granularityQuarter:
			o.defaultYear = now.Year()
			o.description = fmt.Sprintf("Q%d", def.quarter)
		case granularityYear:
			o.year = now.Year() + def.yearOffset
			o.defaultYear = o.year
			o.description = fmt.Sprintf("%d", o.year)
		}
		p.options = append(p.options, o)
	}
	return p
}

func (p *periods) find(optionID string) (period, bool) {
	for _, o := range p.options {
		if o.id == optionID {
			return o, true
		}
	}
	return period{}, false
}

func (p *periods) isYear(optionID string) bool {
	o, ok := p.find(optionID)
	return ok && o.groupNumber == periodGroupYear
}

// defaultYearID returns the year option matching the year an option falls in.
func (p *periods) defaultYearID(optionID string) (string, bool) {
	o, ok := p.find(optionID)
	if !ok {
		return "", false
	}
	for _, y := range p.options {
		if y.groupNumber == periodGroupYear && y.year == o.defaultYear {
			return y.id, true
		}
	}
	return "", false
}

func (p *periods) rank(optionID string) int {
	for i, o := range p.options {
		if o.id == optionID {
			return i
		}
	}
	return len(p.options)
}

// filterOptions returns the options offered by date filters.
func (p *periods) filterOptions() []domain.FilterOption {
	out := make([]domain.FilterOption, len(p.options))
	for i, o := range p.options {
		out[i] = domain.FilterOption{OptionID: o.id, GroupNumber: o.groupNumber, Description: o.description}
	}
	return out
}

// bounds returns the first and last instant of year y refined by option o.
func (p *periods) bounds(y period, o *period) (time.Time, time.Time) {
	loc := p.now.Location()
	start := time.Date(y.year, time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0)
	if o != nil {
		switch o.granularity {
		case granularityMonth:
			start = time.Date(y.year, o.month, 1, 0, 0, 0, 0, loc)
			end = start.AddDate(0, 1, 0)
		case granularityQuarter:
			start = time.Date(y.year, time.Month((o.quarter-1)*3+1), 1, 0, 0, 0, 0, loc)
			end = start.AddDate(0, 3, 0)
		}
	}
	return start, end
}

// basicDomain is the domain and facet label of one year, or one year
// refined by a month or quarter.
type basicDomain struct {
	domain      domain.Domain
	description string
}

func formatBound(t time.Time, fieldType string, last bool) string {
	if fieldType == "date" {
		if last {
			t = t.AddDate(0, 0, -1)
		}
		return t.Format(dateLayout)
	}
	if last {
		t = t.Add(-time.Second)
	}
	return t.UTC().Format(datetimeLayout)
}

func (p *periods) basicDomain(fieldName, fieldType string, y period, o *period) basicDomain {
	start, end := p.bounds(y, o)
	d := domain.And(
		domain.Leaf(fieldName, ">=", formatBound(start, fieldType, false)),
		domain.Leaf(fieldName, "<=", formatBound(end, fieldType, true)),
	)
	desc := y.description
	if o != nil {
		desc = o.description + " " + y.description
	}
	return basicDomain{domain: d, description: desc}
}

// selection splits the active options of a date filter into years and
// refinements, optionally in display order.
func (p *periods) selection(optionIDs []string, sorted bool) (years, others []period) {
	for _, id := range optionIDs {
		o, ok := p.find(id)
		if !ok {
			continue
		}
		if o.groupNumber == periodGroupYear {
			years = append(years, o)
		} else {
			others = append(others, o)
		}
	}
	if sorted {
		byRank := func(s []period) {
			sort.SliceStable(s, func(i, j int) bool { return p.rank(s[i].id) < p.rank(s[j].id) })
		}
		byRank(years)
		byRank(others)
	}
	return years, others
}

// dateFilterParts returns one basicDomain per (refinement, year) pair, or
// per year when no refinement is active.
func (p *periods) dateFilterParts(fieldName, fieldType string, optionIDs []string, sorted bool) []basicDomain {
	years, others := p.selection(optionIDs, sorted)
	var out []basicDomain
	if len(others) == 0 {
		for _, y := range years {
			out = append(out, p.basicDomain(fieldName, fieldType, y, nil))
		}
		return out
	}
	for i := range others {
		for _, y := range years {
			out = append(out, p.basicDomain(fieldName, fieldType, y, &others[i]))
		}
	}
	return out
}

// dateFilterDomain ORs the basic domains of the active options.
func (p *periods) dateFilterDomain(fieldName, fieldType string, optionIDs []string) domain.Domain {
	parts := p.dateFilterParts(fieldName, fieldType, optionIDs, false)
	domains := make([]domain.Domain, len(parts))
	for i, part := range parts {
		domains[i] = part.domain
	}
	return domain.Or(domains...)
}

// dateFilterDescription is the facet label of a date filter, e.g.
// "October 2026 / Q4 2026".
func (p *periods) dateFilterDescription(optionIDs []string) string {
	parts := p.dateFilterParts("", "date", optionIDs, true)
	labels := make([]string, len(parts))
	for i, part := range parts {
		labels[i] = part.description
	}
	return strings.Join(labels, " / ")
}
