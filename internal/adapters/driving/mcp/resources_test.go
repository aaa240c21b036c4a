package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func TestExtractFilterType(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"cpanel://filters/groupBy", "groupBy"},
		{"cpanel://filters/timeRange", "timeRange"},
		{"cpanel://filters/", ""},
		{"cpanel://query", ""},
		{"other://filters/field", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, extractFilterType(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleViewsResource(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleViewsResource(context.Background(), makeReadResourceRequest("cpanel://views"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "cpanel://views", result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.JSONEq(t, `["tasks"]`, result.Contents[0].Text)
}

func TestServer_handleQueryResource(t *testing.T) {
	ctx := context.Background()
	server, panel := newTestServer(t)
	_, err := panel.Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, panel.Dispatch(ctx, controlpanel.MutationToggleFilter,
		filterIDOf(t, panel, domain.FilterTypeFilter, "Urgent")))

	result, err := server.handleQueryResource(ctx, makeReadResourceRequest("cpanel://query"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	assert.Contains(t, result.Contents[0].Text, `">"`)
	assert.NotContains(t, result.Contents[0].Text, `\u003e`)
	var q domain.Query
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &q))
	assert.Equal(t, `[["priority",">",2]]`, q.Domain.String())
}

func TestServer_handleFiltersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists filters of the type", func(t *testing.T) {
		server, _ := newTestServer(t)

		result, err := server.handleFiltersResource(ctx, makeReadResourceRequest("cpanel://filters/filter"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)

		var filters []FilterOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &filters))
		require.Len(t, filters, 1)
		assert.Equal(t, "Urgent", filters[0].Description)
		assert.Equal(t, "filter", filters[0].Type)
	})

	t.Run("unknown type is not found", func(t *testing.T) {
		server, _ := newTestServer(t)

		result, err := server.handleFiltersResource(ctx, makeReadResourceRequest("cpanel://filters/bogus"))

		require.Error(t, err)
		assert.Nil(t, result)
	})
}
