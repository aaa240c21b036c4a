package mcp

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/services"
)

// mockViewLoader is a driven.ViewLoader serving views from memory.
type mockViewLoader struct {
	views map[string]*domain.SearchView
	err   error
}

func (l *mockViewLoader) Load(_ context.Context, name string) (*domain.SearchView, error) {
	if l.err != nil {
		return nil, l.err
	}
	v, ok := l.views[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (l *mockViewLoader) List(_ context.Context) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	names := make([]string, 0, len(l.views))
	for name := range l.views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (l *mockViewLoader) Watch(ctx context.Context, _ func(string)) error {
	<-ctx.Done()
	return nil
}

func tasksView() *domain.SearchView {
	return &domain.SearchView{
		Name:  "tasks",
		Model: "project.task",
		Fields: map[string]domain.FieldMeta{
			"name":     {Name: "name", Type: "char", String: "Task"},
			"stage":    {Name: "stage", Type: "char", String: "Stage"},
			"deadline": {Name: "deadline", Type: "date", String: "Deadline"},
		},
		Arch: []domain.ArchNode{
			{Kind: domain.ArchField, Attrs: map[string]string{"name": "name"}},
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "urgent", "string": "Urgent", "domain": `[["priority",">",2]]`}},
			{Kind: domain.ArchGroupBy, Attrs: map[string]string{"name": "by_stage", "string": "Stage", "field": "stage"}},
		},
	}
}

// newTestServer builds a server over a real control panel service holding
// the tasks view.
func newTestServer(t *testing.T) (*Server, *services.ControlPanelService) {
	t.Helper()

	loader := &mockViewLoader{views: map[string]*domain.SearchView{"tasks": tasksView()}}
	settings := services.NewSettingsService(memory.NewConfigStore(), nil)
	panel := services.NewControlPanelService(loader, memory.NewFavoriteStore(), nil, settings)

	server, err := NewServer(&Ports{Panel: panel})
	require.NoError(t, err)
	return server, panel
}

func filterIDOf(t *testing.T, panel *services.ControlPanelService, typ domain.FilterType, desc string) int {
	t.Helper()

	filters, err := panel.FiltersOfType(typ)
	require.NoError(t, err)
	for _, f := range filters {
		if f.Description == desc {
			return f.ID
		}
	}
	t.Fatalf("no %s filter %q", typ, desc)
	return 0
}
