package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/mcp"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func TestMCPCmd_HasServe(t *testing.T) {
	var names []string
	for _, c := range mcpCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("port"))
}

func TestMCPServeCmd_RequiresPanelService(t *testing.T) {
	SetServices(Services{})

	_, err := execute(t, "mcp", "serve")

	assert.ErrorIs(t, err, mcp.ErrMissingPanelService)
}

func TestMCPServeCmd_UnknownView(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "mcp", "serve", "--view", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
