package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func taskView() *domain.SearchView {
	return &domain.SearchView{
		Name:  "tasks",
		Model: "project.task",
		Fields: map[string]domain.FieldMeta{
			"name":   {Name: "name", Type: "char", String: "Task", Searchable: true, Sortable: true},
			"active": {Name: "active", Type: "boolean", String: "Active"},
		},
		Arch: []domain.ArchNode{
			{Kind: domain.ArchField, Attrs: map[string]string{"name": "name"}},
			{Kind: domain.ArchFilter, Attrs: map[string]string{
				"name":    "archived",
				"string":  "Archived",
				"domain":  `[["active","=",false]]`,
				"context": `{"active_test": false}`,
			}},
		},
	}
}

// newPatchedModel builds a model with the given extensions applied to a
// model-level patch, so tests never touch the shared class.
func newPatchedModel(t *testing.T, view *domain.SearchView, id string, cfg map[string]any) *controlpanel.Model {
	t.Helper()

	r := NewRegistry()
	RegisterDefaults(r)
	fn, err := r.Build(id, cfg)
	require.NoError(t, err)

	m, err := controlpanel.New(controlpanel.Config{View: view})
	require.NoError(t, err)
	require.NoError(t, m.Patch(PatchPrefix+id, fn))
	return m
}

func filterID(t *testing.T, m *controlpanel.Model, typ domain.FilterType, desc string) int {
	t.Helper()

	filters, err := m.FiltersOfType(typ)
	require.NoError(t, err)
	for _, f := range filters {
		if f.Description == desc {
			return f.ID
		}
	}
	t.Fatalf("no %s filter %q", typ, desc)
	return 0
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	assert.Equal(t, []string{ActiveOnly, DefaultOrder, FacetCounts}, r.Names())
}

func TestActiveOnly(t *testing.T) {
	m := newPatchedModel(t, taskView(), ActiveOnly, nil)

	q, err := m.Query()
	require.NoError(t, err)
	assert.Equal(t, `[["active","=",true]]`, q.Domain.String())

	require.NoError(t, m.Dispatch(t.Context(), controlpanel.MutationAddAutoCompletionValues, controlpanel.AutocompleteSelection{
		FilterID: filterID(t, m, domain.FilterTypeField, "Task"),
		Value:    "report",
		Operator: "ilike",
	}))
	q, err = m.Query()
	require.NoError(t, err)
	assert.Equal(t, `["&",["name","ilike","report"],["active","=",true]]`, q.Domain.String())
}

func TestActiveOnly_ActiveTestDisabled(t *testing.T) {
	m := newPatchedModel(t, taskView(), ActiveOnly, nil)

	require.NoError(t, m.Dispatch(t.Context(), controlpanel.MutationToggleFilter,
		filterID(t, m, domain.FilterTypeFilter, "Archived")))

	q, err := m.Query()
	require.NoError(t, err)
	assert.Equal(t, `[["active","=",false]]`, q.Domain.String())
}

func TestActiveOnly_ModelWithoutField(t *testing.T) {
	view := taskView()
	delete(view.Fields, "active")
	view.Arch = view.Arch[:1]
	m := newPatchedModel(t, view, ActiveOnly, nil)

	q, err := m.Query()
	require.NoError(t, err)
	assert.Empty(t, q.Domain)
}

func TestActiveOnly_CustomField(t *testing.T) {
	view := taskView()
	view.Fields["visible"] = domain.FieldMeta{Name: "visible", Type: "boolean"}
	m := newPatchedModel(t, view, ActiveOnly, map[string]any{"field": "visible"})

	q, err := m.Query()
	require.NoError(t, err)
	assert.Equal(t, `[["visible","=",true]]`, q.Domain.String())
}

func TestFacetCounts(t *testing.T) {
	m := newPatchedModel(t, taskView(), FacetCounts, nil)
	id := filterID(t, m, domain.FilterTypeField, "Task")

	for _, v := range []string{"report", "review"} {
		require.NoError(t, m.Dispatch(t.Context(), controlpanel.MutationAddAutoCompletionValues,
			controlpanel.AutocompleteSelection{FilterID: id, Value: v, Label: v}))
	}
	require.NoError(t, m.Dispatch(t.Context(), controlpanel.MutationToggleFilter,
		filterID(t, m, domain.FilterTypeFilter, "Archived")))

	facets, err := m.Facets()
	require.NoError(t, err)
	require.Len(t, facets, 2)
	assert.Equal(t, "Task (2)", facets[0].Title)
	assert.Equal(t, []string{"report", "review"}, facets[0].Values)
	assert.Empty(t, facets[1].Title, "only field facets carry a title")
}

func TestFacetCounts_SingleValue(t *testing.T) {
	m := newPatchedModel(t, taskView(), FacetCounts, nil)

	require.NoError(t, m.Dispatch(t.Context(), controlpanel.MutationAddAutoCompletionValues,
		controlpanel.AutocompleteSelection{FilterID: filterID(t, m, domain.FilterTypeField, "Task"), Value: "report", Label: "report"}))

	facets, err := m.Facets()
	require.NoError(t, err)
	require.Len(t, facets, 1)
	assert.Equal(t, "Task", facets[0].Title)
}

func TestDefaultOrder(t *testing.T) {
	m := newPatchedModel(t, taskView(), DefaultOrder, map[string]any{"order": "priority desc, name"})

	q, err := m.Query()
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderBy{{Name: "priority", Asc: false}, {Name: "name", Asc: true}}, q.OrderedBy)
}

func TestDefaultOrder_RequiresOrder(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Build(DefaultOrder, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_ClassPatchReachesModels(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	m, err := controlpanel.New(controlpanel.Config{View: taskView()})
	require.NoError(t, err)

	undo, err := r.Apply(controlpanel.Behaviors, []string{ActiveOnly}, nil)
	require.NoError(t, err)
	t.Cleanup(undo)

	q, err := m.Query()
	require.NoError(t, err)
	assert.Equal(t, `[["active","=",true]]`, q.Domain.String())

	undo()
	q, err = m.Query()
	require.NoError(t, err)
	assert.Empty(t, q.Domain)
}
