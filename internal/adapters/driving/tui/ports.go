// Package tui provides an interactive terminal user interface for cpanel.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/cpanel/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Panel opens search views and runs mutations on the current model.
	Panel driving.ControlPanelService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService

	// Extensions lists the registered extension ids. Optional.
	Extensions func() []string
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(panel driving.ControlPanelService, settings driving.SettingsService) *Ports {
	return &Ports{
		Panel:    panel,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Panel == nil {
		return ErrMissingPanelService
	}
	return nil
}
