package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

var refNow = time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)

// mockViewLoader serves views from memory and lets tests fire change events.
type mockViewLoader struct {
	mu       sync.Mutex
	views    map[string]*domain.SearchView
	loads    int
	onChange func(string)
	watching chan struct{}
}

func newMockViewLoader(views ...*domain.SearchView) *mockViewLoader {
	l := &mockViewLoader{views: map[string]*domain.SearchView{}, watching: make(chan struct{})}
	for _, v := range views {
		l.views[v.Name] = v
	}
	return l
}

func (l *mockViewLoader) Load(_ context.Context, name string) (*domain.SearchView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	v, ok := l.views[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (l *mockViewLoader) List(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.views))
	for name := range l.views {
		names = append(names, name)
	}
	return names, nil
}

func (l *mockViewLoader) Watch(ctx context.Context, onChange func(string)) error {
	l.mu.Lock()
	l.onChange = onChange
	l.mu.Unlock()
	close(l.watching)
	<-ctx.Done()
	return nil
}

func (l *mockViewLoader) set(v *domain.SearchView) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.views[v.Name] = v
}

func (l *mockViewLoader) fire(name string) {
	l.mu.Lock()
	fn := l.onChange
	l.mu.Unlock()
	fn(name)
}

func tasksView() *domain.SearchView {
	return &domain.SearchView{
		Name:  "tasks",
		Model: "project.task",
		Fields: map[string]domain.FieldMeta{
			"name":  {Name: "name", Type: "char", String: "Task"},
			"stage": {Name: "stage", Type: "char", String: "Stage"},
		},
		Arch: []domain.ArchNode{
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "urgent", "string": "Urgent", "domain": `[["priority",">",2]]`}},
			{Kind: domain.ArchFilter, Attrs: map[string]string{"name": "late", "string": "Late", "domain": `[["late","=",true]]`}},
			{Kind: domain.ArchGroupBy, Attrs: map[string]string{"name": "by_stage", "string": "Stage", "context": `{"group_by": "stage"}`}},
		},
		ActionContext: map[string]any{},
	}
}

func newPanelService(t *testing.T, loader *mockViewLoader, config map[string]any) *ControlPanelService {
	t.Helper()
	settings := NewSettingsService(memory.NewConfigStore(config), nil)
	svc := NewControlPanelService(loader, memory.NewFavoriteStore(), nil, settings)
	svc.SetClock(func() time.Time { return refNow })
	return svc
}

func filterID(t *testing.T, svc *ControlPanelService, ft domain.FilterType, description string) int {
	t.Helper()
	filters, err := svc.FiltersOfType(ft)
	require.NoError(t, err)
	for _, f := range filters {
		if f.Description == description {
			return f.ID
		}
	}
	t.Fatalf("no %s filter %q", ft, description)
	return 0
}

func TestControlPanelService_NotLoaded(t *testing.T) {
	svc := newPanelService(t, newMockViewLoader(), nil)

	assert.Nil(t, svc.Model())
	assert.ErrorIs(t, svc.Dispatch(t.Context(), controlpanel.MutationSearch), domain.ErrViewNotLoaded)
	_, err := svc.Query()
	assert.ErrorIs(t, err, domain.ErrViewNotLoaded)
	_, err = svc.Facets()
	assert.ErrorIs(t, err, domain.ErrViewNotLoaded)
	_, err = svc.FiltersOfType(domain.FilterTypeFilter)
	assert.ErrorIs(t, err, domain.ErrViewNotLoaded)
	assert.ErrorIs(t, svc.Reload(t.Context()), domain.ErrViewNotLoaded)
}

func TestControlPanelService_Open(t *testing.T) {
	svc := newPanelService(t, newMockViewLoader(tasksView()), nil)

	m, err := svc.Open(t.Context(), "tasks")

	require.NoError(t, err)
	assert.Same(t, m, svc.Model())
	assert.Equal(t, "project.task", m.View().Model)
	assert.Equal(t, refNow, m.Now())

	filters, err := svc.FiltersOfType(domain.FilterTypeFilter)
	require.NoError(t, err)
	assert.Len(t, filters, 2)
}

func TestControlPanelService_Open_DefaultView(t *testing.T) {
	other := tasksView()
	other.Name = "other"
	loader := newMockViewLoader(tasksView(), other)

	svc := newPanelService(t, loader, map[string]any{"views.default": "other"})
	m, err := svc.Open(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, "other", m.View().Name)

	ambiguous := newPanelService(t, loader, nil)
	_, err = ambiguous.Open(t.Context(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	single := newPanelService(t, newMockViewLoader(tasksView()), nil)
	m, err = single.Open(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, "tasks", m.View().Name)
}

func TestControlPanelService_Open_UnknownView(t *testing.T) {
	svc := newPanelService(t, newMockViewLoader(), nil)

	_, err := svc.Open(t.Context(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, svc.Model())
}

func TestControlPanelService_Open_ListsFavoritesForUser(t *testing.T) {
	favorites := memory.NewFavoriteStore(
		domain.StoredFavorite{Name: "Shared", Model: "project.task"},
		domain.StoredFavorite{Name: "Mine", Model: "project.task", UserID: 7},
		domain.StoredFavorite{Name: "Theirs", Model: "project.task", UserID: 8},
	)
	settings := NewSettingsService(memory.NewConfigStore(map[string]any{"panel.user_id": 7}), nil)
	svc := NewControlPanelService(newMockViewLoader(tasksView()), favorites, nil, settings)

	_, err := svc.Open(t.Context(), "tasks")
	require.NoError(t, err)

	favs, err := svc.FiltersOfType(domain.FilterTypeFavorite)
	require.NoError(t, err)
	var names []string
	for _, f := range favs {
		names = append(names, f.Description)
	}
	assert.Equal(t, []string{"Shared", "Mine"}, names)
}

func TestControlPanelService_DispatchAndQuery(t *testing.T) {
	svc := newPanelService(t, newMockViewLoader(tasksView()), nil)
	_, err := svc.Open(t.Context(), "tasks")
	require.NoError(t, err)

	require.NoError(t, svc.Dispatch(t.Context(), controlpanel.MutationToggleFilter, filterID(t, svc, domain.FilterTypeFilter, "Urgent")))
	require.NoError(t, svc.Dispatch(t.Context(), controlpanel.MutationToggleFilter, filterID(t, svc, domain.FilterTypeGroupBy, "Stage")))

	q, err := svc.Query()
	require.NoError(t, err)
	assert.Equal(t, `[["priority",">",2]]`, q.Domain.String())
	assert.Equal(t, []string{"stage"}, q.GroupBy)

	facets, err := svc.Facets()
	require.NoError(t, err)
	assert.Len(t, facets, 2)

	err = svc.Dispatch(t.Context(), "explode")
	assert.ErrorIs(t, err, domain.ErrUnknownMutation)
}

func TestControlPanelService_StatePersistsAcrossOpens(t *testing.T) {
	loader := newMockViewLoader(tasksView())
	states := memory.NewStateStore()

	first := newPanelService(t, loader, nil)
	first.SetStateStore(states)
	_, err := first.Open(t.Context(), "tasks")
	require.NoError(t, err)
	require.NoError(t, first.Dispatch(t.Context(), controlpanel.MutationToggleFilter, filterID(t, first, domain.FilterTypeFilter, "Late")))

	second := newPanelService(t, loader, nil)
	second.SetStateStore(states)
	_, err = second.Open(t.Context(), "tasks")
	require.NoError(t, err)

	q, err := second.Query()
	require.NoError(t, err)
	assert.Equal(t, `[["late","=",true]]`, q.Domain.String())

	require.NoError(t, second.Reset(t.Context()))
	q, err = second.Query()
	require.NoError(t, err)
	assert.Empty(t, q.Domain)
	_, err = states.LoadState(t.Context(), "tasks")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestControlPanelService_StaleStateIsDiscarded(t *testing.T) {
	states := memory.NewStateStore()
	require.NoError(t, states.SaveState(t.Context(), "tasks", []byte(`{"filters":[],"query":[{"filterId":99,"groupId":1}]}`)))

	svc := newPanelService(t, newMockViewLoader(tasksView()), nil)
	svc.SetStateStore(states)

	_, err := svc.Open(t.Context(), "tasks")

	require.NoError(t, err)
	filters, err := svc.FiltersOfType(domain.FilterTypeFilter)
	require.NoError(t, err)
	assert.Len(t, filters, 2, "rebuilt from the view")
	_, err = states.LoadState(t.Context(), "tasks")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestControlPanelService_StateDroppedWhenViewChanges(t *testing.T) {
	loader := newMockViewLoader(tasksView())
	states := memory.NewStateStore()

	first := newPanelService(t, loader, nil)
	first.SetStateStore(states)
	_, err := first.Open(t.Context(), "tasks")
	require.NoError(t, err)
	require.NoError(t, first.Dispatch(t.Context(), controlpanel.MutationToggleFilter, filterID(t, first, domain.FilterTypeFilter, "Urgent")))

	changed := tasksView()
	changed.Arch[0].Attrs["domain"] = `[["priority",">",4]]`
	changed.Arch = append(changed.Arch, domain.ArchNode{
		Kind:  domain.ArchFilter,
		Attrs: map[string]string{"name": "mine", "string": "Mine", "domain": `[["user_id","=",1]]`},
	})
	loader.set(changed)

	second := newPanelService(t, loader, nil)
	second.SetStateStore(states)
	_, err = second.Open(t.Context(), "tasks")
	require.NoError(t, err)

	filters, err := second.FiltersOfType(domain.FilterTypeFilter)
	require.NoError(t, err)
	assert.Len(t, filters, 3)
	q, err := second.Query()
	require.NoError(t, err)
	assert.Empty(t, q.Domain, "old activation dropped")
	_, err = states.LoadState(t.Context(), "tasks")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, second.Dispatch(t.Context(), controlpanel.MutationToggleFilter, filterID(t, second, domain.FilterTypeFilter, "Urgent")))
	q, err = second.Query()
	require.NoError(t, err)
	assert.Equal(t, `[["priority",">",4]]`, q.Domain.String())
}

type failingStateStore struct{ *memory.StateStore }

func (failingStateStore) SaveState(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestControlPanelService_SaveStateFailure(t *testing.T) {
	svc := newPanelService(t, newMockViewLoader(tasksView()), nil)
	svc.SetStateStore(failingStateStore{memory.NewStateStore()})
	_, err := svc.Open(t.Context(), "tasks")
	require.NoError(t, err)

	err = svc.Dispatch(t.Context(), controlpanel.MutationToggleFilter, filterID(t, svc, domain.FilterTypeFilter, "Late"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save state")
	q, qerr := svc.Query()
	require.NoError(t, qerr)
	assert.NotEmpty(t, q.Domain, "the mutation itself was applied")
}

func TestControlPanelService_ReloadNotifiesListeners(t *testing.T) {
	loader := newMockViewLoader(tasksView())
	svc := newPanelService(t, loader, nil)
	var built []*controlpanel.Model
	svc.OnReload(func(m *controlpanel.Model) { built = append(built, m) })

	first, err := svc.Open(t.Context(), "tasks")
	require.NoError(t, err)

	changed := tasksView()
	changed.Arch = changed.Arch[:1]
	loader.set(changed)
	require.NoError(t, svc.Reload(t.Context()))

	require.Len(t, built, 2)
	assert.Same(t, first, built[0])
	assert.NotSame(t, first, svc.Model())
	filters, err := svc.FiltersOfType(domain.FilterTypeFilter)
	require.NoError(t, err)
	assert.Len(t, filters, 1)
}

func TestControlPanelService_WatchReloadsCurrentView(t *testing.T) {
	loader := newMockViewLoader(tasksView())
	svc := newPanelService(t, loader, nil)
	_, err := svc.Open(t.Context(), "tasks")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx) }()
	<-loader.watching

	loader.fire("contacts")
	loader.mu.Lock()
	loads := loader.loads
	loader.mu.Unlock()
	assert.Equal(t, 1, loads, "other views are ignored")

	loader.fire("tasks")
	loader.mu.Lock()
	loads = loader.loads
	loader.mu.Unlock()
	assert.Equal(t, 2, loads)

	cancel()
	require.NoError(t, <-done)
}

func TestControlPanelService_Views(t *testing.T) {
	svc := newPanelService(t, newMockViewLoader(tasksView()), nil)

	names, err := svc.Views(t.Context())

	require.NoError(t, err)
	assert.Equal(t, []string{"tasks"}, names)
}
