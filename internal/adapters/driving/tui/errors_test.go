package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingPanelService.Error(), ErrInvalidPorts.Error())
}

func TestErrMissingPanelService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingPanelService.Error(), "control panel service")
}

func TestErrInvalidPorts_Message(t *testing.T) {
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
}
