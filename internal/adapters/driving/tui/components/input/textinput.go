// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// maxSuggestions caps the suggestion rows rendered under the input.
const maxSuggestions = 8

// SearchInput wraps a bubbles textinput with a label and a list of
// autocomplete suggestions for the term being typed.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int

	// suggestions answer suggestionsTerm; they are hidden once the value
	// moves on to another term.
	suggestions     []domain.AutocompleteValue
	suggestionsTerm string
	selected        int
}

// NewSearchInput creates a new search input component.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return &SearchInput{
		textinput: ti,
		styles:    s,
		label:     "Search",
		width:     50,
		selected:  -1,
	}
}

// Init initialises the search input.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the search input followed by the current suggestions.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render(s.label + ": ")
	input := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	line := lipgloss.JoinHorizontal(lipgloss.Center, label, input)

	suggestions := s.Suggestions()
	if len(suggestions) == 0 {
		return line
	}

	rows := make([]string, 0, len(suggestions)+1)
	rows = append(rows, line)
	for i, v := range suggestions {
		if i == maxSuggestions {
			rows = append(rows, s.styles.Muted.Render("    ..."))
			break
		}
		if i == s.selected {
			rows = append(rows, s.styles.Selected.Render("  > "+v.Label))
			continue
		}
		rows = append(rows, s.styles.Normal.Render("    "+v.Label))
	}
	return strings.Join(rows, "\n")
}

// Value returns the current input value.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// Term returns the value with surrounding space removed.
func (s *SearchInput) Term() string {
	return strings.TrimSpace(s.textinput.Value())
}

// SetValue sets the input value.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// SetLabel sets the text shown before the input.
func (s *SearchInput) SetLabel(label string) {
	s.label = label
}

// Label returns the text shown before the input.
func (s *SearchInput) Label() string {
	return s.label
}

// SetSuggestions replaces the suggestions with values found for term.
// The selection resets to none.
func (s *SearchInput) SetSuggestions(term string, values []domain.AutocompleteValue) {
	s.suggestionsTerm = term
	s.suggestions = values
	s.selected = -1
}

// Suggestions returns the suggestions for the current term, or nil when
// they were fetched for an earlier term.
func (s *SearchInput) Suggestions() []domain.AutocompleteValue {
	if s.suggestionsTerm == "" || s.suggestionsTerm != s.Term() {
		return nil
	}
	return s.suggestions
}

// ClearSuggestions drops all suggestions.
func (s *SearchInput) ClearSuggestions() {
	s.suggestions = nil
	s.suggestionsTerm = ""
	s.selected = -1
}

// MoveUp moves the suggestion selection up. Moving above the first
// suggestion selects none.
func (s *SearchInput) MoveUp() {
	if s.selected >= 0 {
		s.selected--
	}
}

// MoveDown moves the suggestion selection down.
func (s *SearchInput) MoveDown() {
	n := len(s.Suggestions())
	if n > maxSuggestions {
		n = maxSuggestions
	}
	if s.selected < n-1 {
		s.selected++
	}
}

// Selected returns the selected suggestion, or nil if none is selected.
func (s *SearchInput) Selected() *domain.AutocompleteValue {
	suggestions := s.Suggestions()
	if s.selected < 0 || s.selected >= len(suggestions) {
		return nil
	}
	return &suggestions[s.selected]
}

// Focus sets focus on the input.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	// Account for label and padding
	inputWidth := width - len(s.label) - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.textinput.Width = inputWidth
}

// Width returns the current width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the input and its suggestions.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
	s.ClearSuggestions()
}
