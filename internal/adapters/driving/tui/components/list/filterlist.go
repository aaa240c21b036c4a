// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// Row is one line of a FilterList: a filter, or one option of a filter
// with options.
type Row struct {
	Filter domain.Filter
	Option *domain.FilterOption
	// Separator is set on the first row of a new group.
	Separator bool
}

// Active reports whether the row's filter or option is active.
func (r Row) Active() bool {
	if r.Option != nil {
		return r.Option.IsActive
	}
	return r.Filter.IsActive
}

// FilterList displays the filters of one type in a navigable list.
type FilterList struct {
	rows     []Row
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewFilterList creates a new filter list component.
func NewFilterList(s *styles.Styles) *FilterList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &FilterList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the filter list.
func (l *FilterList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *FilterList) Update(msg tea.Msg) (*FilterList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the filter list.
func (l *FilterList) View() string {
	if len(l.rows) == 0 {
		return l.styles.Muted.Render("No filters")
	}

	// Separators take a line of their own.
	visible := l.height
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.rows) {
		end = len(l.rows)
	}

	lines := make([]string, 0, (end-start)*2)
	for i := start; i < end; i++ {
		if l.rows[i].Separator && i > start {
			lines = append(lines, l.styles.Muted.Render("  ──"))
		}
		lines = append(lines, l.renderRow(i))
	}
	return strings.Join(lines, "\n")
}

func (l *FilterList) renderRow(i int) string {
	row := l.rows[i]

	indicator := "  "
	if i == l.selected {
		indicator = "> "
	}
	mark := "[ ]"
	if row.Active() {
		mark = "[x]"
	}

	label := row.Filter.Description
	indent := ""
	if row.Option != nil {
		label = row.Option.Description
		indent = "    "
	}
	if row.Filter.Type == domain.FilterTypeFavorite && row.Filter.IsDefault {
		label += " (default)"
	}

	maxLen := l.width - len(indent) - 10
	if maxLen < 10 {
		maxLen = 10
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}

	text := fmt.Sprintf("%s%s%s %s", indicator, indent, mark, label)
	switch {
	case i == l.selected:
		return l.styles.Selected.Render(text)
	case row.Active():
		return l.styles.Active.Render(text)
	default:
		return l.styles.Normal.Render(text)
	}
}

// SetFilters replaces the rows with filters, keeping the selection on the
// same row index where possible. Filters with options get one row per
// option after their own row.
func (l *FilterList) SetFilters(filters []domain.Filter) {
	rows := make([]Row, 0, len(filters))
	prevGroup := 0
	for i := range filters {
		f := filters[i]
		rows = append(rows, Row{Filter: f, Separator: i > 0 && f.GroupID != prevGroup})
		prevGroup = f.GroupID
		for j := range f.Options {
			opt := f.Options[j]
			rows = append(rows, Row{Filter: f, Option: &opt})
		}
	}
	l.rows = rows
	if l.selected >= len(rows) {
		l.selected = len(rows) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Rows returns the current rows.
func (l *FilterList) Rows() []Row {
	return l.rows
}

// Selected returns the index of the selected row.
func (l *FilterList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *FilterList) SetSelected(index int) {
	if index >= 0 && index < len(l.rows) {
		l.selected = index
	}
}

// SelectedRow returns the currently selected row, or nil if none.
func (l *FilterList) SelectedRow() *Row {
	if len(l.rows) == 0 || l.selected < 0 || l.selected >= len(l.rows) {
		return nil
	}
	return &l.rows[l.selected]
}

// MoveUp moves selection up.
func (l *FilterList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *FilterList) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *FilterList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Width returns the current width.
func (l *FilterList) Width() int {
	return l.width
}

// Height returns the current height.
func (l *FilterList) Height() int {
	return l.height
}

// Count returns the number of rows.
func (l *FilterList) Count() int {
	return len(l.rows)
}

// IsEmpty returns whether the list is empty.
func (l *FilterList) IsEmpty() bool {
	return len(l.rows) == 0
}
