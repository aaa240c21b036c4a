package panel

import "errors"

// Error definitions for the panel view.
var (
	// ErrNoPanelService indicates that no control panel service was provided.
	ErrNoPanelService = errors.New("control panel service is required")

	// ErrNoModel indicates that no search view is open.
	ErrNoModel = errors.New("no search view open")
)
