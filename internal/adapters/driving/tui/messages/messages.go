// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewPanel is the control panel of the open search view.
	ViewPanel
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewSettings is the settings configuration view.
	ViewSettings
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewPanel:
		return "panel"
	case ViewHelp:
		return "help"
	case ViewSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ViewsLoaded carries the names of the available search views.
type ViewsLoaded struct {
	Views []string
	Err   error
}

// SearchViewSelected asks for a search view to be opened.
type SearchViewSelected struct {
	Name string
}

// PanelOpened carries the model built for a search view.
type PanelOpened struct {
	Name  string
	Model *controlpanel.Model
	Err   error
}

// PanelReloaded is sent when the current model was rebuilt, e.g. after
// its view definition changed on disk.
type PanelReloaded struct {
	Model *controlpanel.Model
}

// PanelChanged is sent when a connected selector result changed.
type PanelChanged struct{}

// Dispatched reports the outcome of a mutation.
type Dispatched struct {
	Mutation string
	Err      error
}

// SuggestionsFetched reports the outcome of an autocomplete request. The
// values themselves are read from the model.
type SuggestionsFetched struct {
	FilterID int
	Term     string
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Views    []string
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}
