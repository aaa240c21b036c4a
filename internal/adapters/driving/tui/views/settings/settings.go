// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driving"
)

// ErrNoSettingsService is reported when the view has no settings service.
var ErrNoSettingsService = errors.New("settings service not available")

// RowKind identifies what a settings row edits.
type RowKind int

const (
	RowDefaultView RowKind = iota
	RowOutput
	RowFavoriteCombination
	RowExtension
)

// Row is one editable line of the settings view.
type Row struct {
	Kind RowKind
	// Extension is the extension id of a RowExtension row.
	Extension string
}

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService
	views           func(ctx context.Context) ([]string, error)
	extensions      func() []string

	// Current settings
	settings  *domain.AppSettings
	viewNames []string
	err       error
	invalid   error

	selected int

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewView creates a new settings view. views lists the search views the
// default view cycles through; extensions lists the known extension ids.
// Both may be nil.
func NewView(
	s *styles.Styles,
	settingsService driving.SettingsService,
	views func(ctx context.Context) ([]string, error),
	extensions func() []string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:          s,
		settingsService: settingsService,
		views:           views,
		extensions:      extensions,
	}
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

// loadSettings returns a command that loads current settings.
func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := v.settingsService.Get()
		if err != nil {
			return messages.SettingsLoaded{Err: err}
		}
		var names []string
		if v.views != nil {
			names, err = v.views(context.Background())
		}
		return messages.SettingsLoaded{Settings: settings, Views: names, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		v.viewNames = msg.Views
		v.err = nil
		v.invalid = nil
		if v.settingsService != nil {
			v.invalid = v.settingsService.Validate()
		}
		if v.selected >= len(v.Rows()) {
			v.selected = 0
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		// Reload settings after save
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.Rows())-1 {
			v.selected++
		}
	case "enter", " ":
		return v, v.edit()
	}
	return v, nil
}

// Rows returns the editable rows: the fixed settings, then one row per
// known extension.
func (v *View) Rows() []Row {
	rows := []Row{{Kind: RowDefaultView}, {Kind: RowOutput}, {Kind: RowFavoriteCombination}}
	if v.extensions != nil {
		for _, id := range v.extensions() {
			rows = append(rows, Row{Kind: RowExtension, Extension: id})
		}
	}
	return rows
}

// edit changes the value of the selected row and saves it.
func (v *View) edit() tea.Cmd {
	if v.settings == nil || v.settingsService == nil {
		return nil
	}
	rows := v.Rows()
	if v.selected >= len(rows) {
		return nil
	}
	row := rows[v.selected]
	svc := v.settingsService
	settings := *v.settings

	switch row.Kind {
	case RowDefaultView:
		next := nextString(v.viewNames, settings.DefaultView)
		if next == "" {
			// Clearing the default view goes through Save; SetDefaultView
			// rejects an empty name.
			settings.DefaultView = ""
			return save(func() error { return svc.Save(&settings) })
		}
		return save(func() error { return svc.SetDefaultView(next) })

	case RowOutput:
		formats := domain.AllOutputFormats()
		next := formats[0]
		for i, f := range formats {
			if f == settings.Output {
				next = formats[(i+1)%len(formats)]
				break
			}
		}
		return save(func() error { return svc.SetOutput(next) })

	case RowFavoriteCombination:
		settings.Panel.AllowFavoriteCombination = !settings.Panel.AllowFavoriteCombination
		return save(func() error { return svc.Save(&settings) })

	case RowExtension:
		id := row.Extension
		if v.extensionEnabled(id) {
			return save(func() error { return svc.DisableExtension(id) })
		}
		return save(func() error { return svc.EnableExtension(id) })
	}
	return nil
}

func save(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return messages.SettingsSaved{Err: fn()}
	}
}

// nextString returns the value after current in values, cycling through
// "" (no value) after the last one.
func nextString(values []string, current string) string {
	if len(values) == 0 {
		return ""
	}
	if current == "" {
		return values[0]
	}
	for i, s := range values {
		if s == current {
			if i == len(values)-1 {
				return ""
			}
			return values[i+1]
		}
	}
	return values[0]
}

func (v *View) extensionEnabled(id string) bool {
	if v.settings == nil {
		return false
	}
	for _, enabled := range v.settings.Panel.Extensions {
		if enabled == id {
			return true
		}
	}
	return false
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		b.WriteString("\n")
		return b.String()
	}

	for i, row := range v.Rows() {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		line := indicator + v.rowLabel(row)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
		if row.Kind == RowFavoriteCombination && len(v.Rows()) > 3 {
			b.WriteString("\n")
			b.WriteString(v.styles.Subtitle.Render("Extensions"))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Views directory:   " + orDefault(v.settings.ViewsDir)))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Storage directory: " + orDefault(v.settings.StorageDir)))
	b.WriteString("\n\n")

	if v.invalid != nil {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", v.invalid.Error())))
	} else {
		b.WriteString(v.styles.Success.Render("Configuration is valid"))
	}
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] navigate  [enter] change  [esc] back"))

	return b.String()
}

func (v *View) rowLabel(row Row) string {
	s := v.settings
	switch row.Kind {
	case RowDefaultView:
		name := s.DefaultView
		if name == "" {
			name = "(none)"
		}
		return "Default view:      " + name
	case RowOutput:
		return "Output format:     " + s.Output.String()
	case RowFavoriteCombination:
		return "Combine favorites: " + onOff(s.Panel.AllowFavoriteCombination)
	case RowExtension:
		return fmt.Sprintf("%-19s%s", row.Extension+":", onOff(v.extensionEnabled(row.Extension)))
	default:
		return ""
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDefault(dir string) string {
	if dir == "" {
		return "(default)"
	}
	return dir
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.selected = 0
	v.err = nil
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Selected returns the index of the selected row.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
