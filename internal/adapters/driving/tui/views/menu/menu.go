// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label string
	View  messages.ViewType
	// SearchView names the search view opened by this item, if any.
	SearchView string
	Quit       bool // If true, selecting this item quits the app
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	err      error
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view. Search views are added with SetViews.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:   s,
		items:    fixedItems(),
		selected: 0,
		width:    80,
		height:   24,
	}
}

func fixedItems() []Item {
	return []Item{
		{Label: "Settings", View: messages.ViewSettings},
		{Label: "Help", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetViews lists one item per search view before the fixed items.
func (v *View) SetViews(names []string) {
	items := make([]Item, 0, len(names)+3)
	for _, name := range names {
		items = append(items, Item{Label: name, View: messages.ViewPanel, SearchView: name})
	}
	v.items = append(items, fixedItems()...)
	if v.selected >= len(v.items) {
		v.selected = 0
	}
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case messages.ViewsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.SetViews(msg.Views)
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			if item.SearchView != "" {
				return v, func() tea.Msg {
					return messages.SearchViewSelected{Name: item.SearchView}
				}
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}

		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("cpanel"))
	b.WriteString("\n\n")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("Search Control Panel")
	b.WriteString(subtitle)
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	for i, item := range v.items {
		if i > 0 && item.SearchView == "" && v.items[i-1].SearchView != "" {
			b.WriteString("\n")
		}

		cursor := "  "
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

		if i == v.selected {
			cursor = "> "
			style = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")).
				Bold(true)
		}

		b.WriteString(cursor + style.Render(item.Label))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("[j/k] Navigate  [Enter] Select  [q] Quit")
	b.WriteString(footer)

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu items.
func (v *View) Items() []Item {
	return v.items
}
