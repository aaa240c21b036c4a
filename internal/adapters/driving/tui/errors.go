package tui

import "errors"

// ErrMissingPanelService is returned when the control panel service is not provided.
var ErrMissingPanelService = errors.New("tui: control panel service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
