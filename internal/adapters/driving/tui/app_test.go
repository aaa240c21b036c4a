package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	ports, _ := newTestPorts(t, nil)
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	t.Cleanup(app.Close)
	return app
}

// send runs msg through the app and feeds back the messages of the
// returned command, skipping batches.
func send(t *testing.T, app *App, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := app.Update(msg)
	if cmd == nil {
		return nil
	}
	next := cmd()
	if _, ok := next.(tea.BatchMsg); ok {
		return next
	}
	app.Update(next)
	return next
}

func TestNewApp(t *testing.T) {
	t.Run("valid ports", func(t *testing.T) {
		app := newTestApp(t)

		assert.Equal(t, messages.ViewMenu, app.CurrentView())
		assert.NoError(t, app.Err())
		assert.True(t, app.Ready())
		assert.NotNil(t, app.Panel())
	})

	t.Run("invalid ports", func(t *testing.T) {
		app, err := NewApp(&Ports{})

		assert.Nil(t, app)
		assert.ErrorIs(t, err, ErrMissingPanelService)
	})

	t.Run("tabs from settings", func(t *testing.T) {
		ports, _ := newTestPorts(t, map[string]any{"panel.search_menu_types": []any{"groupBy"}})
		app, err := NewApp(ports)
		require.NoError(t, err)

		assert.Equal(t, domain.FilterTypeGroupBy, app.Panel().Tab())
	})
}

func TestApp_View_NotReady(t *testing.T) {
	ports, _ := newTestPorts(t, nil)
	app, err := NewApp(ports)
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t)

	assert.NotNil(t, app.Init())
}

func TestApp_ViewsLoaded(t *testing.T) {
	app := newTestApp(t)

	msg := app.loadViews()()
	app.Update(msg)

	assert.Equal(t, messages.ViewsLoaded{Views: []string{"contacts", "tasks"}}, msg)
	view := app.View()
	assert.Contains(t, view, "contacts")
	assert.Contains(t, view, "tasks")
}

func TestApp_ViewsLoaded_Error(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ViewsLoaded{Err: errors.New("no views directory")})

	assert.EqualError(t, app.Err(), "no views directory")
}

func TestApp_OpenView(t *testing.T) {
	app := newTestApp(t)

	msg := send(t, app, messages.SearchViewSelected{Name: "tasks"})

	opened, ok := msg.(messages.PanelOpened)
	require.True(t, ok)
	require.NoError(t, opened.Err)
	assert.Equal(t, messages.ViewPanel, app.CurrentView())
	assert.Equal(t, "tasks", app.Panel().Name())
	assert.Same(t, opened.Model, app.Panel().Model())
	assert.Contains(t, app.View(), "project.task")
}

func TestApp_OpenView_Error(t *testing.T) {
	app := newTestApp(t)

	send(t, app, messages.SearchViewSelected{Name: "missing"})

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	require.Error(t, app.Err())
	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
	assert.Contains(t, app.View(), "opening missing")
}

func TestApp_WithView(t *testing.T) {
	app := newTestApp(t).WithView("tasks")

	app.Update(app.openView("tasks")())

	assert.Equal(t, messages.ViewPanel, app.CurrentView())
}

func TestApp_PanelReloaded(t *testing.T) {
	ports, panel := newTestPorts(t, nil)
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	t.Cleanup(app.Close)

	var sent []tea.Msg
	app.SetSender(func(msg tea.Msg) { sent = append(sent, msg) })
	send(t, app, messages.SearchViewSelected{Name: "tasks"})
	first := app.Panel().Model()

	// Open reports its model through the sender too; it is already shown.
	for _, msg := range sent {
		app.Update(msg)
	}
	assert.Same(t, first, app.Panel().Model())

	require.NoError(t, panel.Reload(context.Background()))
	require.NotEmpty(t, sent)
	app.Update(sent[len(sent)-1])

	assert.NotSame(t, first, app.Panel().Model())
	assert.Same(t, panel.Model(), app.Panel().Model())
	assert.Equal(t, 0, first.Subscribers(), "the old model is disconnected")
}

func TestApp_PanelChangedFromOutside(t *testing.T) {
	ports, panel := newTestPorts(t, nil)
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	t.Cleanup(app.Close)

	var sent []tea.Msg
	app.SetSender(func(msg tea.Msg) { sent = append(sent, msg) })
	send(t, app, messages.SearchViewSelected{Name: "tasks"})
	sent = nil

	require.NoError(t, panel.Dispatch(context.Background(), controlpanel.MutationCreateNewGroupBy, "stage"))

	require.Equal(t, []tea.Msg{messages.PanelChanged{}}, sent)
	app.Update(sent[0])
	assert.Equal(t, []string{"stage"}, app.Panel().Query().GroupBy)
	assert.Contains(t, app.View(), "Group by: stage")
}

func TestApp_Navigation(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "Help")
	assert.Contains(t, app.View(), "Remove the last facet")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSettings})
	assert.Equal(t, messages.ViewSettings, app.CurrentView())
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Contains(t, app.View(), "Default view:")
}

func TestApp_PanelBackToMenu(t *testing.T) {
	app := newTestApp(t)
	send(t, app, messages.SearchViewSelected{Name: "tasks"})

	app.Update(tea.KeyMsg{Type: tea.KeyEsc}) // leave the input
	send(t, app, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_DispatchFromPanel(t *testing.T) {
	app := newTestApp(t)
	send(t, app, messages.SearchViewSelected{Name: "tasks"})
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	msg := send(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, messages.Dispatched{Mutation: controlpanel.MutationToggleFilter}, msg)
	assert.Equal(t, `[["priority",">",2]]`, app.Panel().Query().Domain.String())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_SettingsLoadedUpdatesTabs(t *testing.T) {
	app := newTestApp(t)
	settings := domain.DefaultAppSettings()
	settings.Panel.SearchMenuTypes = []domain.FilterType{domain.FilterTypeFavorite}

	app.Update(messages.SettingsLoaded{Settings: &settings})

	assert.Equal(t, domain.FilterTypeFavorite, app.Panel().Tab())
}

func TestApp_WindowSize(t *testing.T) {
	ports, _ := newTestPorts(t, nil)
	app, err := NewApp(ports)
	require.NoError(t, err)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.True(t, app.Ready())
	assert.True(t, app.Panel().Ready())
}
