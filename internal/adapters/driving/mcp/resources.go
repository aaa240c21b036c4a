package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for cpanel resources.
	uriScheme = "cpanel://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "query",
		Name:        "query",
		Description: "Query built from the active filters of the current panel",
		MIMEType:    "application/json",
	}, s.handleQueryResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "views",
		Name:        "views",
		Description: "List of the available search views",
		MIMEType:    "application/json",
	}, s.handleViewsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "filters/{type}",
		Name:        "filters",
		Description: "Filters of one type in the current panel",
		MIMEType:    "application/json",
	}, s.handleFiltersResource)
}

// handleQueryResource returns the current query as JSON.
func (s *Server) handleQueryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if _, err := s.model(ctx); err != nil {
		return nil, err
	}
	q, err := s.ports.Panel.Query()
	if err != nil {
		return nil, fmt.Errorf("getting query: %w", err)
	}
	return jsonResource(req.Params.URI, q)
}

// handleViewsResource returns the names of the available views.
func (s *Server) handleViewsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	views, err := s.ports.Panel.Views(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing views: %w", err)
	}
	if views == nil {
		views = []string{}
	}
	return jsonResource(req.Params.URI, views)
}

// handleFiltersResource returns the filters of the type named in the URI.
func (s *Server) handleFiltersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	t := domain.FilterType(extractFilterType(req.Params.URI))
	if !t.IsValid() {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if _, err := s.model(ctx); err != nil {
		return nil, err
	}

	filters, err := s.ports.Panel.FiltersOfType(t)
	if err != nil {
		return nil, fmt.Errorf("listing filters: %w", err)
	}
	infos := make([]FilterOutput, len(filters))
	for i := range filters {
		infos[i] = toFilterOutput(&filters[i])
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := domain.EncodeJSON(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFilterType extracts the type from a URI like cpanel://filters/{type}.
func extractFilterType(uri string) string {
	const prefix = uriScheme + "filters/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
