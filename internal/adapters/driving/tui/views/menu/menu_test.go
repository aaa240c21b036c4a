package menu

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles())

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Len(t, view.items, 3)
	assert.Equal(t, 0, view.selected)
	assert.Equal(t, 80, view.width)
	assert.Equal(t, 24, view.height)
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Nil(t, view.Init())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
	assert.Equal(t, 50, view.height)
}

func TestView_SetViews(t *testing.T) {
	view := NewView(nil)

	view.SetViews([]string{"contacts", "tasks"})

	items := view.Items()
	require.Len(t, items, 5)
	assert.Equal(t, Item{Label: "contacts", View: messages.ViewPanel, SearchView: "contacts"}, items[0])
	assert.Equal(t, "tasks", items[1].SearchView)
	assert.Equal(t, "Settings", items[2].Label)
	assert.True(t, items[4].Quit)
}

func TestView_SetViews_ResetsSelectionOutOfRange(t *testing.T) {
	view := NewView(nil)
	view.SetViews([]string{"a", "b", "c"})
	view.selected = 5

	view.SetViews(nil)

	assert.Equal(t, 0, view.selected)
}

func TestView_Update_ViewsLoaded(t *testing.T) {
	t.Run("adds views", func(t *testing.T) {
		view := NewView(nil)

		view.Update(messages.ViewsLoaded{Views: []string{"tasks"}})

		assert.Len(t, view.Items(), 4)
		assert.Nil(t, view.err)
	})

	t.Run("keeps error", func(t *testing.T) {
		view := NewView(nil)
		view.SetDimensions(80, 24)

		view.Update(messages.ViewsLoaded{Err: errors.New("no views dir")})

		assert.Len(t, view.Items(), 3)
		assert.Contains(t, view.View(), "Error: no views dir")
	})
}

func TestView_Update_Navigate(t *testing.T) {
	view := NewView(nil)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.selected)

	view.Update(keyRune('j'))
	assert.Equal(t, 2, view.selected)

	// Boundary - can't go past last item
	view.Update(keyRune('j'))
	assert.Equal(t, 2, view.selected)

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	view.Update(keyRune('k'))
	assert.Equal(t, 0, view.selected)

	// Boundary - can't go before first item
	view.Update(keyRune('k'))
	assert.Equal(t, 0, view.selected)
}

func TestView_Update_Enter_SearchView(t *testing.T) {
	view := NewView(nil)
	view.SetViews([]string{"tasks"})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	selected, ok := cmd().(messages.SearchViewSelected)
	require.True(t, ok)
	assert.Equal(t, "tasks", selected.Name)
}

func TestView_Update_Enter_ViewChange(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		want     messages.ViewType
	}{
		{"settings", 0, messages.ViewSettings},
		{"help", 1, messages.ViewHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			changed, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.want, changed.View)
		})
	}
}

func TestView_Update_Quit(t *testing.T) {
	view := NewView(nil)
	view.selected = 2 // Quit

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = NewView(nil).Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View_NotReady(t *testing.T) {
	view := NewView(nil)

	assert.Contains(t, view.View(), "Initialising")
}

func TestView_View_Ready(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 24)
	view.SetViews([]string{"tasks"})

	output := view.View()

	assert.Contains(t, output, "cpanel")
	assert.Contains(t, output, "Search Control Panel")
	assert.Contains(t, output, "> tasks")
	assert.Contains(t, output, "Settings")
	assert.Contains(t, output, "Help")
	assert.Contains(t, output, "Quit")
}

func TestView_SetDimensions(t *testing.T) {
	view := NewView(nil)

	view.SetDimensions(120, 60)

	assert.Equal(t, 120, view.width)
	assert.Equal(t, 60, view.height)
	assert.True(t, view.ready)
}
