package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func typeText(input *SearchInput, text string) {
	for _, r := range text {
		input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func values(labels ...string) []domain.AutocompleteValue {
	out := make([]domain.AutocompleteValue, len(labels))
	for i, l := range labels {
		out[i] = domain.AutocompleteValue{Value: l, Label: l}
	}
	return out
}

func TestNewSearchInput(t *testing.T) {
	s := styles.DefaultStyles()
	input := NewSearchInput(s)

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.Equal(t, "Search", input.Label())
	assert.True(t, input.Focused())
	assert.Nil(t, input.Selected())
}

func TestNewSearchInput_NilStyles(t *testing.T) {
	input := NewSearchInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestSearchInput_Init(t *testing.T) {
	input := NewSearchInput(nil)

	// Blink command should be returned
	assert.NotNil(t, input.Init())
}

func TestSearchInput_Update_MultipleKeys(t *testing.T) {
	input := NewSearchInput(nil)

	typeText(input, "hello")

	assert.Equal(t, "hello", input.Value())
}

func TestSearchInput_Update_Backspace(t *testing.T) {
	input := NewSearchInput(nil)
	input.SetValue("test")

	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "tes", input.Value())
}

func TestSearchInput_View(t *testing.T) {
	input := NewSearchInput(nil)
	input.SetLabel("Task")

	view := input.View()

	assert.Contains(t, view, "Task")
}

func TestSearchInput_Term(t *testing.T) {
	input := NewSearchInput(nil)
	input.SetValue("  report ")

	assert.Equal(t, "report", input.Term())
}

func TestSearchInput_FocusAndBlur(t *testing.T) {
	input := NewSearchInput(nil)

	input.Blur()
	assert.False(t, input.Focused())

	cmd := input.Focus()
	assert.NotNil(t, cmd)
	assert.True(t, input.Focused())
}

func TestSearchInput_SetWidth(t *testing.T) {
	input := NewSearchInput(nil)
	assert.Equal(t, 50, input.Width())

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())

	input.SetWidth(10) // Very small, textinput keeps its minimum
	assert.Equal(t, 10, input.Width())
}

func TestSearchInput_Suggestions(t *testing.T) {
	input := NewSearchInput(nil)
	typeText(input, "rep")

	input.SetSuggestions("rep", values("report", "repair"))

	assert.Len(t, input.Suggestions(), 2)
	view := input.View()
	assert.Contains(t, view, "report")
	assert.Contains(t, view, "repair")
}

func TestSearchInput_Suggestions_StaleTerm(t *testing.T) {
	input := NewSearchInput(nil)
	typeText(input, "rep")
	input.SetSuggestions("re", values("read"))

	assert.Nil(t, input.Suggestions(), "suggestions for an earlier term are hidden")
	assert.NotContains(t, input.View(), "read")

	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Len(t, input.Suggestions(), 1, "they show again once the term matches")
}

func TestSearchInput_Suggestions_Navigation(t *testing.T) {
	input := NewSearchInput(nil)
	input.SetValue("rep")
	input.SetSuggestions("rep", values("report", "repair"))

	assert.Nil(t, input.Selected())

	input.MoveDown()
	require.NotNil(t, input.Selected())
	assert.Equal(t, "report", input.Selected().Label)

	input.MoveDown()
	input.MoveDown() // boundary
	assert.Equal(t, "repair", input.Selected().Label)

	input.MoveUp()
	input.MoveUp()
	assert.Nil(t, input.Selected(), "moving above the first suggestion selects none")
}

func TestSearchInput_Suggestions_Capped(t *testing.T) {
	input := NewSearchInput(nil)
	input.SetValue("a")
	labels := make([]string, 12)
	for i := range labels {
		labels[i] = string(rune('a' + i))
	}
	input.SetSuggestions("a", values(labels...))

	for i := 0; i < 20; i++ {
		input.MoveDown()
	}

	assert.Equal(t, labels[maxSuggestions-1], input.Selected().Label)
	assert.Contains(t, input.View(), "...")
}

func TestSearchInput_Reset(t *testing.T) {
	input := NewSearchInput(nil)
	input.SetValue("some text")
	input.SetSuggestions("some text", values("some text here"))

	input.Reset()

	assert.Equal(t, "", input.Value())
	assert.Nil(t, input.Suggestions())
}
