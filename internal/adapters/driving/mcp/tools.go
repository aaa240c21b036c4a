package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// ViewsOutput is the output schema for the list_views tool.
type ViewsOutput struct {
	Views []string `json:"views"`
}

// OpenViewInput is the input schema for the open_view tool.
type OpenViewInput struct {
	View string `json:"view,omitempty" jsonschema:"name of the view to open (default: the configured default view)"`
}

// OpenViewOutput is the output schema for the open_view tool.
type OpenViewOutput struct {
	View  string `json:"view"`
	Model string `json:"model"`
}

// ListFiltersInput is the input schema for the list_filters tool.
type ListFiltersInput struct {
	Type string `json:"type,omitempty" jsonschema:"filter type: field, filter, groupBy, favorite or timeRange (default: all)"`
}

// ListFiltersOutput is the output schema for the list_filters tool.
type ListFiltersOutput struct {
	Filters []FilterOutput `json:"filters"`
	Count   int            `json:"count"`
}

// FilterOutput represents a single filter.
type FilterOutput struct {
	ID            int      `json:"id"`
	Type          string   `json:"type"`
	GroupID       int      `json:"group_id"`
	Description   string   `json:"description"`
	Active        bool     `json:"active"`
	FieldName     string   `json:"field_name,omitempty"`
	Options       []string `json:"options,omitempty"`
	ActiveOptions []string `json:"active_options,omitempty"`
	Values        []string `json:"values,omitempty"`
}

// DispatchInput is the input schema for the dispatch tool.
type DispatchInput struct {
	Mutation string `json:"mutation" jsonschema:"mutation name, e.g. toggleFilter, toggleFilterWithOptions, createNewGroupBy, activateTimeRange, addAutoCompletionValues, clearQuery"`
	Args     []any  `json:"args,omitempty" jsonschema:"mutation arguments in order, e.g. [3] for toggleFilter"`
}

// QueryOutput is the output schema for the get_query and dispatch tools.
type QueryOutput struct {
	Domain     string         `json:"domain"`
	Context    map[string]any `json:"context,omitempty"`
	GroupBy    []string       `json:"group_by,omitempty"`
	OrderBy    []string       `json:"order_by,omitempty"`
	TimeRange  string         `json:"time_range,omitempty"`
	Comparison string         `json:"comparison,omitempty"`
}

// FacetsOutput is the output schema for the get_facets tool.
type FacetsOutput struct {
	Facets []FacetOutput `json:"facets"`
}

// FacetOutput represents the active filters of one group.
type FacetOutput struct {
	GroupID   int      `json:"group_id"`
	Type      string   `json:"type"`
	Title     string   `json:"title,omitempty"`
	Separator string   `json:"separator,omitempty"`
	Values    []string `json:"values"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_views",
		Description: "List the available search views",
	}, s.handleListViews)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "open_view",
		Description: "Open a search view as the current control panel, restoring its saved state",
	}, s.handleOpenView)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_filters",
		Description: "List the filters of the current control panel with their ids and active state",
	}, s.handleListFilters)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "dispatch",
		Description: "Run a control panel mutation and return the resulting query",
	}, s.handleDispatch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_query",
		Description: "Get the query built from the active filters",
	}, s.handleGetQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_facets",
		Description: "Get the active filters grouped as facets",
	}, s.handleGetFacets)
}

func (s *Server) handleListViews(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ViewsOutput, error) {
	views, err := s.ports.Panel.Views(ctx)
	if err != nil {
		return nil, ViewsOutput{}, fmt.Errorf("listing views: %w", err)
	}
	return nil, ViewsOutput{Views: views}, nil
}

func (s *Server) handleOpenView(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OpenViewInput,
) (*mcp.CallToolResult, OpenViewOutput, error) {
	m, err := s.ports.Panel.Open(ctx, input.View)
	if err != nil {
		return nil, OpenViewOutput{}, fmt.Errorf("opening view: %w", err)
	}
	view := m.View()
	return nil, OpenViewOutput{View: view.Name, Model: view.Model}, nil
}

func (s *Server) handleListFilters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListFiltersInput,
) (*mcp.CallToolResult, ListFiltersOutput, error) {
	types := domain.AllFilterTypes()
	if input.Type != "" {
		t := domain.FilterType(input.Type)
		if !t.IsValid() {
			return nil, ListFiltersOutput{}, fmt.Errorf("%w: filter type %q", domain.ErrInvalidInput, input.Type)
		}
		types = []domain.FilterType{t}
	}

	if _, err := s.model(ctx); err != nil {
		return nil, ListFiltersOutput{}, err
	}

	output := ListFiltersOutput{Filters: []FilterOutput{}}
	for _, t := range types {
		filters, err := s.ports.Panel.FiltersOfType(t)
		if err != nil {
			return nil, ListFiltersOutput{}, fmt.Errorf("listing filters: %w", err)
		}
		for i := range filters {
			output.Filters = append(output.Filters, toFilterOutput(&filters[i]))
		}
	}
	output.Count = len(output.Filters)
	return nil, output, nil
}

func (s *Server) handleDispatch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DispatchInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	raw := make([]json.RawMessage, 0, len(input.Args))
	for _, a := range input.Args {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, QueryOutput{}, fmt.Errorf("encoding arguments: %w", err)
		}
		raw = append(raw, data)
	}
	args, err := controlpanel.DecodeArgs(input.Mutation, raw)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	if _, err := s.model(ctx); err != nil {
		return nil, QueryOutput{}, err
	}
	if err := s.ports.Panel.Dispatch(ctx, input.Mutation, args...); err != nil {
		return nil, QueryOutput{}, fmt.Errorf("%s: %w", input.Mutation, err)
	}
	return s.query()
}

func (s *Server) handleGetQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, QueryOutput, error) {
	if _, err := s.model(ctx); err != nil {
		return nil, QueryOutput{}, err
	}
	return s.query()
}

func (s *Server) handleGetFacets(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, FacetsOutput, error) {
	if _, err := s.model(ctx); err != nil {
		return nil, FacetsOutput{}, err
	}
	facets, err := s.ports.Panel.Facets()
	if err != nil {
		return nil, FacetsOutput{}, fmt.Errorf("getting facets: %w", err)
	}
	output := FacetsOutput{Facets: make([]FacetOutput, len(facets))}
	for i, f := range facets {
		output.Facets[i] = FacetOutput{
			GroupID:   f.GroupID,
			Type:      f.Type.String(),
			Title:     f.Title,
			Separator: f.Separator,
			Values:    f.Values,
		}
	}
	return nil, output, nil
}

func (s *Server) query() (*mcp.CallToolResult, QueryOutput, error) {
	q, err := s.ports.Panel.Query()
	if err != nil {
		return nil, QueryOutput{}, fmt.Errorf("getting query: %w", err)
	}
	return nil, toQueryOutput(q), nil
}

func toQueryOutput(q domain.Query) QueryOutput {
	out := QueryOutput{
		Domain:  q.Domain.String(),
		Context: q.Context,
		GroupBy: q.GroupBy,
		OrderBy: domain.FormatSort(q.OrderedBy),
	}
	if tr := q.TimeRanges; tr != nil {
		out.TimeRange = fmt.Sprintf("%s: %s %s", tr.FieldName, tr.RangeDescription, tr.Range.String())
		if tr.HasComparison() {
			out.Comparison = fmt.Sprintf("%s %s", tr.ComparisonRangeDescription, tr.ComparisonRange.String())
		}
	}
	return out
}

func toFilterOutput(f *domain.Filter) FilterOutput {
	out := FilterOutput{
		ID:          f.ID,
		Type:        f.Type.String(),
		GroupID:     f.GroupID,
		Description: f.Description,
		Active:      f.IsActive,
		FieldName:   f.FieldName,
	}
	for _, o := range f.Options {
		out.Options = append(out.Options, o.OptionID)
		if o.IsActive {
			out.ActiveOptions = append(out.ActiveOptions, o.OptionID)
		}
	}
	for _, v := range f.AutocompleteValues {
		out.Values = append(out.Values, v.Label)
	}
	return out
}
