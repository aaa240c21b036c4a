// Package mcp provides an MCP (Model Context Protocol) server adapter for
// cpanel. It lets AI assistants inspect the control panel, toggle filters
// and read the query they build.
package mcp

import "errors"

// ErrMissingPanelService is returned when the control panel service is not provided.
var ErrMissingPanelService = errors.New("mcp: control panel service is required")
