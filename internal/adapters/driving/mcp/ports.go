package mcp

import (
	"net/http"

	"github.com/custodia-labs/cpanel/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Panel opens views and runs mutations.
	Panel driving.ControlPanelService

	// Metrics is served on /metrics by RunHTTP. Optional.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Panel == nil {
		return ErrMissingPanelService
	}
	return nil
}
