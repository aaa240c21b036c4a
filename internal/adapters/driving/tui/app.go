package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/views/panel"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/logger"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// panelView is the control panel of the open search view.
	panelView *panel.View

	// settingsView is the settings configuration view component.
	settingsView *settings.View

	// initialView is opened by Init when set.
	initialView string

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	panelView := panel.NewView(s, nil, ports.Panel)
	if ports.Settings != nil {
		if current, err := ports.Settings.Get(); err == nil {
			panelView.SetTabs(current.Panel.SearchMenuTypes)
		} else {
			logger.Warn("tui: reading settings: %v", err)
		}
	}

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s),
		panelView:    panelView,
		settingsView: settings.NewView(s, ports.Settings, ports.Panel.Views, ports.Extensions),
		currentView:  messages.ViewMenu, // Start with menu
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.panelView.WithContext(ctx)
	return a
}

// WithView makes Init open the named search view instead of waiting on
// the menu.
func (a *App) WithView(name string) *App {
	a.initialView = name
	return a
}

// SetSender connects the app to a running program. Model changes made
// outside the event loop, such as reloads of an edited view file, are
// delivered through send. Call it once, before the program starts.
func (a *App) SetSender(send func(tea.Msg)) {
	a.panelView.SetNotifier(send)
	a.ports.Panel.OnReload(func(m *controlpanel.Model) {
		send(messages.PanelReloaded{Model: m})
	})
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("cpanel - Search Control Panel"),
		a.loadViews(),
	}
	if a.initialView != "" {
		cmds = append(cmds, a.openView(a.initialView))
	}
	return tea.Batch(cmds...)
}

func (a *App) loadViews() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		names, err := a.ports.Panel.Views(ctx)
		return messages.ViewsLoaded{Views: names, Err: err}
	}
}

func (a *App) openView(name string) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		m, err := a.ports.Panel.Open(ctx, name)
		return messages.PanelOpened{Name: name, Model: m, Err: err}
	}
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Forward key messages to active view
		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewPanel:
			a.panelView, cmd = a.panelView.Update(msg)
		case messages.ViewSettings:
			a.settingsView, cmd = a.settingsView.Update(msg)
		case messages.ViewHelp:
			// Esc from help goes to menu
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.ViewsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.menuView, cmd = a.menuView.Update(msg)
		return a, cmd

	case messages.SearchViewSelected:
		return a, a.openView(msg.Name)

	case messages.PanelOpened:
		if msg.Err != nil {
			a.err = fmt.Errorf("opening %s: %w", msg.Name, msg.Err)
			a.currentView = messages.ViewMenu
			return a, nil
		}
		a.err = nil
		a.panelView.SetModel(msg.Name, msg.Model)
		a.panelView.Reset()
		a.currentView = messages.ViewPanel
		return a, a.panelView.Init()

	case messages.PanelReloaded:
		// Open reports its model through PanelOpened as well.
		if msg.Model != nil && msg.Model != a.panelView.Model() && a.panelView.Name() != "" {
			a.panelView.SetModel(a.panelView.Name(), msg.Model)
		}
		return a, nil

	case messages.PanelChanged, messages.Dispatched, messages.SuggestionsFetched:
		a.panelView, cmd = a.panelView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		// Initialise views when switching to them
		switch msg.View {
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu:
			return a, a.loadViews()
		case messages.ViewPanel, messages.ViewHelp:
			// Other views don't need special initialisation
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewPanel {
			a.panelView, cmd = a.panelView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit

	case messages.SettingsLoaded:
		if msg.Err == nil && msg.Settings != nil {
			a.panelView.SetTabs(msg.Settings.Panel.SearchMenuTypes)
		}
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewPanel:
		a.panelView, cmd = a.panelView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewPanel:
		return a.panelView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		view := a.menuView.View()
		if a.err != nil {
			view += "\n" + a.styles.Error.Render("Error: "+a.err.Error())
		}
		return view
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Open view / select option
  q           Quit

Search input:
  (type)      Search the field shown in the label
  ↑/↓         Pick a suggestion
  tab         Search the next field
  enter       Add the value as a filter
  esc         Browse filters

Filters:
  j/k, ↑/↓    Navigate filters
  tab/l, h    Next / previous menu
  enter       Toggle filter
  x           Remove the last facet
  c           Clear all facets
  r           Reset to the view defaults
  /           Back to the search input

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	a.SetSender(p.Send)
	defer a.Close()
	_, err := p.Run()
	return err
}

// Close disconnects the panel view from its model.
func (a *App) Close() {
	a.panelView.Close()
}

// Panel returns the panel view.
func (a *App) Panel() *panel.View {
	return a.panelView
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.panelView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
