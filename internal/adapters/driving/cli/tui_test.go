package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui"
)

func TestTUICmd_Use(t *testing.T) {
	assert.Equal(t, "tui [view]", tuiCmd.Use)
}

func TestTUICmd_RequiresPanelService(t *testing.T) {
	SetServices(Services{})

	_, err := execute(t, "tui")

	assert.ErrorIs(t, err, tui.ErrMissingPanelService)
}

func TestTUICmd_TooManyArgs(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "tui", "tasks", "contacts")

	assert.Error(t, err)
}
