package controlpanel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
	"github.com/custodia-labs/cpanel/internal/logger"
	"github.com/custodia-labs/cpanel/internal/patch"
	"github.com/custodia-labs/cpanel/internal/store"
)

// Mutation names accepted by Dispatch.
const (
	MutationToggleFilter            = "toggleFilter"
	MutationToggleFilterWithOptions = "toggleFilterWithOptions"
	MutationCreateNewFilters        = "createNewFilters"
	MutationCreateNewGroupBy        = "createNewGroupBy"
	MutationCreateNewFavorite       = "createNewFavorite"
	MutationActivateTimeRange       = "activateTimeRange"
	MutationDeleteFavorite          = "deleteFavorite"
	MutationClearQuery              = "clearQuery"
	MutationDeactivateGroup         = "deactivateGroup"
	MutationAddAutoCompletionValues = "addAutoCompletionValues"
	MutationFetchAutocomplete       = "fetchAutocomplete"
	MutationUpdateFilters           = "updateFilters"
	MutationImportState             = "importState"
	MutationSearch                  = "search"
)

// Getter names accepted by Get.
const (
	GetterFiltersOfType = "getFiltersOfType"
	GetterQuery         = "getQuery"
	GetterFacets        = "getFacets"
	GetterExportState   = "exportState"
)

// AutocompleteLimit is the number of suggestions requested from the source.
const AutocompleteLimit = 8

// searchDefaultPrefix marks action context keys that activate filters at
// construction.
const searchDefaultPrefix = "search_default_"

// Config describes the panel to build.
type Config struct {
	// View is the search view. Required.
	View *domain.SearchView

	// Favorites are the stored favorites of the view's model.
	Favorites []domain.StoredFavorite

	// FavoriteStore saves and deletes favorites. Without it, favorite
	// creation and deletion fail with domain.ErrHostRejected.
	FavoriteStore driven.FavoriteStore

	// Autocomplete suggests field values. Without it only selection
	// fields get suggestions.
	Autocomplete driven.AutocompleteSource

	// AllowFavoriteCombination keeps other active favorites when one is
	// activated.
	AllowFavoriteCombination bool

	// UserID owns private favorites created from this panel.
	UserID int

	// Now returns the reference time of date options. Defaults to time.Now.
	Now func() time.Time

	// Observer receives dispatch and notification events.
	Observer store.Observer

	// State, when set, is imported instead of evaluating the view's
	// defaults (see Model.ExportState).
	State []byte
}

// env holds what mutations and getters read but never change.
type env struct {
	model          string
	fields         map[string]domain.FieldMeta
	view           *domain.SearchView
	actionContext  map[string]any
	actionDomain   domain.Domain
	searchDefaults map[string]any
	activateFav    bool
	periods        *periods

	favorites     driven.FavoriteStore
	autocomplete  driven.AutocompleteSource
	combineFav    bool
	userID        int
}

// Model is the control panel: a store of filters and the query they build.
type Model struct {
	*store.Store[State]
	env      *env
	behavior *patch.Instance[Behavior]
}

// New builds a model from a search view.
func New(cfg Config) (*Model, error) {
	if cfg.View == nil {
		return nil, fmt.Errorf("%w: search view is required", domain.ErrInvalidInput)
	}
	if err := cfg.View.ActionDomain.Validate(); err != nil {
		return nil, fmt.Errorf("view %s: action domain: %w", cfg.View.Name, err)
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	e := &env{
		model:          cfg.View.Model,
		fields:         cfg.View.Fields,
		view:           cfg.View,
		actionContext:  map[string]any{},
		actionDomain:   cfg.View.ActionDomain,
		searchDefaults: map[string]any{},
		activateFav:    true,
		periods:        newPeriods(now()),
		favorites:      cfg.FavoriteStore,
		autocomplete:   cfg.Autocomplete,
		combineFav:     cfg.AllowFavoriteCombination,
		userID:         cfg.UserID,
	}
	if e.fields == nil {
		e.fields = map[string]domain.FieldMeta{}
	}
	for k, v := range cfg.View.ActionContext {
		if name, ok := strings.CutPrefix(k, searchDefaultPrefix); ok {
			e.searchDefaults[name] = v
			continue
		}
		e.actionContext[k] = v
	}
	if v, ok := e.actionContext["search_disable_custom_filters"]; ok {
		e.activateFav = !truthy(v)
	}

	st := newState()
	if len(cfg.State) > 0 {
		if err := e.importState(&st, cfg.State); err != nil {
			return nil, err
		}
	} else if err := e.build(&st, cfg.Favorites); err != nil {
		return nil, fmt.Errorf("view %s: %w", cfg.View.Name, err)
	}

	m := &Model{
		Store: store.New(st, store.Config[State]{
			Name:     "controlpanel:" + cfg.View.Name,
			Clone:    cloneState,
			Observer: cfg.Observer,
		}),
		env:      e,
		behavior: Behaviors.NewInstance(),
	}
	m.register()
	logger.Debug("controlpanel: %s built with %d filters, %d active", cfg.View.Name, st.Len(), len(st.query))
	return m, nil
}

func (m *Model) register() {
	m.RegisterMutation(MutationToggleFilter, m.mutToggleFilter)
	m.RegisterMutation(MutationToggleFilterWithOptions, m.mutToggleFilterWithOptions)
	m.RegisterMutation(MutationCreateNewFilters, m.mutCreateNewFilters)
	m.RegisterMutation(MutationCreateNewGroupBy, m.mutCreateNewGroupBy)
	m.RegisterMutation(MutationCreateNewFavorite, m.mutCreateNewFavorite)
	m.RegisterMutation(MutationActivateTimeRange, m.mutActivateTimeRange)
	m.RegisterMutation(MutationDeleteFavorite, m.mutDeleteFavorite)
	m.RegisterMutation(MutationClearQuery, m.mutClearQuery)
	m.RegisterMutation(MutationDeactivateGroup, m.mutDeactivateGroup)
	m.RegisterMutation(MutationAddAutoCompletionValues, m.mutAddAutoCompletionValues)
	m.RegisterMutation(MutationFetchAutocomplete, m.mutFetchAutocomplete)
	m.RegisterMutation(MutationUpdateFilters, m.mutUpdateFilters)
	m.RegisterMutation(MutationImportState, m.mutImportState)
	m.RegisterMutation(MutationSearch, m.mutSearch)

	m.RegisterGetter(GetterFiltersOfType, m.getFiltersOfType)
	m.RegisterGetter(GetterQuery, m.getQuery)
	m.RegisterGetter(GetterFacets, m.getFacets)
	m.RegisterGetter(GetterExportState, m.getExportState)
}

// View returns the search view the model was built from.
func (m *Model) View() *domain.SearchView {
	return m.env.view
}

// Now returns the reference time of date options.
func (m *Model) Now() time.Time {
	return m.env.periods.now
}

// Behavior returns the behaviour resolved for this model.
func (m *Model) Behavior() Behavior {
	return m.behavior.Current()
}

// Patch applies a behaviour patch to this model only. Connected components
// are refreshed so selectors see the new behaviour.
func (m *Model) Patch(name string, fn patch.Func[Behavior]) error {
	if err := m.behavior.Patch(name, fn); err != nil {
		return err
	}
	m.Refresh()
	return nil
}

// Unpatch removes an instance patch. Unknown names are ignored.
func (m *Model) Unpatch(name string) {
	m.behavior.Unpatch(name)
	m.Refresh()
}

// Refresh re-evaluates connected components, e.g. after class patches
// changed how the query or the filters are built.
func (m *Model) Refresh() {
	if err := m.Dispatch(context.Background(), MutationSearch, true); err != nil {
		logger.Warn("controlpanel: refresh %s: %v", m.Name(), err)
	}
}

func (m *Model) evaluate(st State) *Evaluation {
	return m.env.evaluate(st, m.behavior.Current())
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0" && !strings.EqualFold(x, "false")
	default:
		n, ok := toNumber(v)
		return !ok || n != 0
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
