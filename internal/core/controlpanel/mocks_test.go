package controlpanel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

var refNow = time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)

// testView is a task search view:
//
//	name (field) | stage (field) | My Tasks, Urgent | --- | Deadline (date)
//	group-bys: Stage, Deadline by week
func testView() *domain.SearchView {
	return &domain.SearchView{
		Name:  "tasks",
		Model: "project.task",
		Fields: map[string]domain.FieldMeta{
			"name":  {Name: "name", Type: "char", String: "Task"},
			"stage": {Name: "stage", Type: "selection", String: "Stage", Selection: []domain.SelectionValue{
				{Value: "draft", Label: "Draft"},
				{Value: "progress", Label: "In Progress"},
				{Value: "done", Label: "Done"},
			}},
			"user_id":     {Name: "user_id", Type: "many2one", String: "Assignee", Relation: "res.users"},
			"deadline":    {Name: "deadline", Type: "date", String: "Deadline"},
			"create_date": {Name: "create_date", Type: "datetime", String: "Created on"},
			"priority":    {Name: "priority", Type: "integer", String: "Priority"},
			"description": {Name: "description", Type: "html", String: "Description"},
			"tag_ids":     {Name: "tag_ids", Type: "many2many", String: "Tags"},
		},
		Arch: []domain.ArchNode{
			{Kind: domain.ArchField, Attrs: map[string]string{"name": "name"}},
			{Kind: domain.ArchField, Attrs: map[string]string{"name": "stage"}},
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "my", "string": "My Tasks", "domain": `[["user_id","=",1]]`}},
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "urgent", "string": "Urgent", "domain": `[["priority",">",2]]`}},
			{Kind: domain.ArchSeparator},
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "deadline", "string": "Deadline", "date": "deadline"}},
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "stage_group", "string": "Stage", "context": `{"group_by":"stage"}`}},
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "by_deadline", "string": "Deadline", "context": `{"group_by":"deadline:week"}`}},
		},
		ActionContext: map[string]any{"lang": "en_US"},
	}
}

func testFavorites() []domain.StoredFavorite {
	return []domain.StoredFavorite{
		{
			ID:     10,
			Name:   "Late",
			Model:  "project.task",
			Domain: domain.Leaf("deadline", "<", "2026-10-01"),
		},
		{
			ID:        11,
			Name:      "Mine by stage",
			Model:     "project.task",
			Domain:    domain.Leaf("user_id", "=", int64(7)),
			GroupBys:  []string{"stage"},
			OrderedBy: []domain.OrderBy{{Name: "priority", Asc: false}},
			UserID:    7,
		},
	}
}

func newTestModel(t *testing.T, cfg Config) *Model {
	t.Helper()
	if cfg.View == nil {
		cfg.View = testView()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return refNow }
	}
	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

// idOf returns the id of the filter of type t with the given description.
func idOf(t *testing.T, m *Model, typ domain.FilterType, description string) int {
	t.Helper()
	filters, err := m.FiltersOfType(typ)
	require.NoError(t, err)
	for _, f := range filters {
		if f.Description == description {
			return f.ID
		}
	}
	t.Fatalf("no %s filter %q", typ, description)
	return 0
}

func filterByID(t *testing.T, m *Model, typ domain.FilterType, id int) domain.Filter {
	t.Helper()
	filters, err := m.FiltersOfType(typ)
	require.NoError(t, err)
	for _, f := range filters {
		if f.ID == id {
			return f
		}
	}
	t.Fatalf("no %s filter %d", typ, id)
	return domain.Filter{}
}

func query(t *testing.T, m *Model) domain.Query {
	t.Helper()
	q, err := m.Query()
	require.NoError(t, err)
	return q
}

func dispatch(t *testing.T, m *Model, name string, args ...any) {
	t.Helper()
	require.NoError(t, m.Dispatch(context.Background(), name, args...))
}

// mockFavoriteStore is a driven.FavoriteStore kept in memory.
type mockFavoriteStore struct {
	mu      sync.Mutex
	nextID  int
	saved   []domain.StoredFavorite
	deleted []int
	err     error
}

func (s *mockFavoriteStore) List(_ context.Context, model string, _ int) ([]domain.StoredFavorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StoredFavorite
	for _, f := range s.saved {
		if f.Model == model {
			out = append(out, f)
		}
	}
	return out, s.err
}

func (s *mockFavoriteStore) Create(_ context.Context, fav domain.StoredFavorite) (domain.StoredFavorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.StoredFavorite{}, s.err
	}
	s.nextID++
	fav.ID = 100 + s.nextID
	s.saved = append(s.saved, fav)
	return fav, nil
}

func (s *mockFavoriteStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

// mockAutocomplete answers with fixed values and records requested terms.
type mockAutocomplete struct {
	mu     sync.Mutex
	values []domain.AutocompleteValue
	terms  []string
	err    error
}

func (a *mockAutocomplete) Autocomplete(_ context.Context, _, _, term string, limit int) ([]domain.AutocompleteValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.terms = append(a.terms, term)
	if a.err != nil {
		return nil, a.err
	}
	if len(a.values) > limit {
		return a.values[:limit], nil
	}
	return a.values, nil
}
