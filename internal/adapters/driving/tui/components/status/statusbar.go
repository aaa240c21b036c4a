// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
)

// State represents the current panel state for display.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateError   State = "error"
	StateHelp    State = "help"
	StateBrowse  State = "browse"
)

// Bar displays the panel state and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	activeCount int
	viewName    string
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	prefix := ""
	if s.viewName != "" {
		prefix = s.viewName + " · "
	}

	switch s.state {
	case StateLoading:
		return s.styles.Muted.Render(prefix + "Loading...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("%sError: %s", prefix, s.message))
		}
		return s.styles.Error.Render(prefix + "Error")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateReady, StateBrowse:
		if s.message != "" {
			return s.styles.Normal.Render(prefix + s.message)
		}
		if s.activeCount > 0 {
			return s.styles.Normal.Render(fmt.Sprintf("%s%d active", prefix, s.activeCount))
		}
		return s.styles.Muted.Render(prefix + "Ready")
	}
	return s.styles.Muted.Render(prefix + "Ready")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateBrowse {
		bindings = s.keymap.PanelHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetActiveCount sets the number of active facets.
func (s *Bar) SetActiveCount(count int) {
	s.activeCount = count
}

// ActiveCount returns the number of active facets.
func (s *Bar) ActiveCount() int {
	return s.activeCount
}

// SetViewName sets the name of the open search view.
func (s *Bar) SetViewName(name string) {
	s.viewName = name
}

// ViewName returns the name of the open search view.
func (s *Bar) ViewName() string {
	return s.viewName
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state. The view name is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.activeCount = 0
}
