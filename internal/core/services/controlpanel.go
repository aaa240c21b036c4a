package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
	"github.com/custodia-labs/cpanel/internal/core/ports/driving"
	"github.com/custodia-labs/cpanel/internal/logger"
	"github.com/custodia-labs/cpanel/internal/store"
)

// Ensure ControlPanelService implements the interface.
var _ driving.ControlPanelService = (*ControlPanelService)(nil)

// ControlPanelService opens search views as control panel models.
type ControlPanelService struct {
	views        driven.ViewLoader
	favorites    driven.FavoriteStore
	autocomplete driven.AutocompleteSource
	settings     driving.SettingsService
	states       driven.StateStore
	observer     store.Observer
	now          func() time.Time

	mu        sync.RWMutex
	model     *controlpanel.Model
	viewName  string
	digest    string
	listeners []func(*controlpanel.Model)
}

// NewControlPanelService creates a new control panel service.
// The autocomplete source is optional (can be nil).
func NewControlPanelService(
	views driven.ViewLoader,
	favorites driven.FavoriteStore,
	autocomplete driven.AutocompleteSource,
	settings driving.SettingsService,
) *ControlPanelService {
	return &ControlPanelService{
		views:        views,
		favorites:    favorites,
		autocomplete: autocomplete,
		settings:     settings,
	}
}

// SetStateStore enables saving the panel state after every dispatch and
// restoring it on Open.
func (s *ControlPanelService) SetStateStore(states driven.StateStore) {
	s.states = states
}

// SetObserver sets the observer handed to every model built.
func (s *ControlPanelService) SetObserver(observer store.Observer) {
	s.observer = observer
}

// SetClock sets the reference time source of date options.
func (s *ControlPanelService) SetClock(now func() time.Time) {
	s.now = now
}

// Views lists the available search views.
func (s *ControlPanelService) Views(ctx context.Context) ([]string, error) {
	return s.views.List(ctx)
}

// Open loads a view and makes its model current. An empty name opens the
// configured default view, or the only view when there is just one.
func (s *ControlPanelService) Open(ctx context.Context, name string) (*controlpanel.Model, error) {
	name, err := s.resolveName(ctx, name)
	if err != nil {
		return nil, err
	}

	m, digest, err := s.build(ctx, name, true)
	if err != nil {
		return nil, err
	}
	s.swap(name, m, digest)
	return m, nil
}

// Model returns the current model, or nil before Open.
func (s *ControlPanelService) Model() *controlpanel.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Dispatch runs a mutation on the current model and saves the resulting state.
func (s *ControlPanelService) Dispatch(ctx context.Context, mutation string, args ...any) error {
	m, name, err := s.current()
	if err != nil {
		return err
	}
	if err := m.Dispatch(ctx, mutation, args...); err != nil {
		return err
	}
	s.mu.RLock()
	digest := s.digest
	s.mu.RUnlock()
	return s.saveState(ctx, name, m, digest)
}

// FiltersOfType returns the current model's filters of a type.
func (s *ControlPanelService) FiltersOfType(t domain.FilterType) ([]domain.Filter, error) {
	m, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return m.FiltersOfType(t)
}

// Query returns the current model's query.
func (s *ControlPanelService) Query() (domain.Query, error) {
	m, _, err := s.current()
	if err != nil {
		return domain.Query{}, err
	}
	return m.Query()
}

// Facets returns the current model's facets.
func (s *ControlPanelService) Facets() ([]domain.Facet, error) {
	m, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return m.Facets()
}

// Reset clears the saved state and rebuilds the model from the view defaults.
func (s *ControlPanelService) Reset(ctx context.Context) error {
	_, name, err := s.current()
	if err != nil {
		return err
	}
	if s.states != nil {
		if err := s.states.ClearState(ctx, name); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
	}
	m, digest, err := s.build(ctx, name, false)
	if err != nil {
		return err
	}
	s.swap(name, m, digest)
	return nil
}

// Reload rebuilds the current model from its view definition. Filter ids
// may change with the definition, so the state is not carried over.
func (s *ControlPanelService) Reload(ctx context.Context) error {
	logger.Section("Reload")
	return s.Reset(ctx)
}

// Watch reloads the current model whenever its view definition changes,
// until ctx is cancelled. Reload failures are logged and the previous
// model is kept.
func (s *ControlPanelService) Watch(ctx context.Context) error {
	return s.views.Watch(ctx, func(name string) {
		s.mu.RLock()
		current := s.viewName
		s.mu.RUnlock()
		if name != current {
			return
		}
		if err := s.Reload(ctx); err != nil {
			logger.Warn("controlpanel: reload of %s failed: %v", name, err)
		}
	})
}

// OnReload registers fn to be called with every model built by Open,
// Reset or Reload.
func (s *ControlPanelService) OnReload(fn func(*controlpanel.Model)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *ControlPanelService) current() (*controlpanel.Model, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, "", domain.ErrViewNotLoaded
	}
	return s.model, s.viewName, nil
}

func (s *ControlPanelService) resolveName(ctx context.Context, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if s.settings != nil {
		settings, err := s.settings.Get()
		if err != nil {
			return "", fmt.Errorf("get settings: %w", err)
		}
		if settings.DefaultView != "" {
			return settings.DefaultView, nil
		}
	}
	names, err := s.views.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list views: %w", err)
	}
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("%w: no view named and no default view configured", domain.ErrInvalidInput)
}

// build loads the view and its favorites and constructs a model. With
// restore set, a saved state is imported; a saved state exported against
// another view definition or favorite set, or one that no longer imports,
// is dropped. The returned digest identifies the loaded view definition.
func (s *ControlPanelService) build(ctx context.Context, name string, restore bool) (*controlpanel.Model, string, error) {
	settings := domain.DefaultAppSettings()
	if s.settings != nil {
		current, err := s.settings.Get()
		if err != nil {
			return nil, "", fmt.Errorf("get settings: %w", err)
		}
		settings = *current
	}

	view, err := s.views.Load(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("load view: %w", err)
	}
	digest, err := viewDigest(view)
	if err != nil {
		return nil, "", err
	}

	var favorites []domain.StoredFavorite
	if s.favorites != nil {
		favorites, err = s.favorites.List(ctx, view.Model, settings.Panel.UserID)
		if err != nil {
			return nil, "", fmt.Errorf("list favorites: %w", err)
		}
	}

	cfg := controlpanel.Config{
		View:                     view,
		Favorites:                favorites,
		FavoriteStore:            s.favorites,
		Autocomplete:             s.autocomplete,
		AllowFavoriteCombination: settings.Panel.AllowFavoriteCombination,
		UserID:                   settings.Panel.UserID,
		Now:                      s.now,
		Observer:                 s.observer,
	}

	if restore && s.states != nil {
		data, err := s.states.LoadState(ctx, name)
		switch {
		case err == nil:
			cfg.State, err = decodeSavedState(data, stateFingerprint(digest, storedFavoriteIDs(favorites)))
			if err != nil {
				s.discardState(ctx, name, err)
			}
		case !errors.Is(err, domain.ErrNotFound):
			return nil, "", fmt.Errorf("load state: %w", err)
		}
	}

	m, err := controlpanel.New(cfg)
	if err != nil && cfg.State != nil {
		s.discardState(ctx, name, err)
		cfg.State = nil
		m, err = controlpanel.New(cfg)
	}
	if err != nil {
		return nil, "", err
	}

	logger.Debug("controlpanel: opened %s (%s, %d favorites)", name, view.Model, len(favorites))
	return m, digest, nil
}

func (s *ControlPanelService) discardState(ctx context.Context, name string, reason error) {
	logger.Warn("controlpanel: saved state of %s discarded: %v", name, reason)
	if err := s.states.ClearState(ctx, name); err != nil {
		logger.Warn("controlpanel: %v", err)
	}
}

func (s *ControlPanelService) swap(name string, m *controlpanel.Model, digest string) {
	s.mu.Lock()
	s.model = m
	s.viewName = name
	s.digest = digest
	listeners := append([]func(*controlpanel.Model){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(m)
	}
}

func (s *ControlPanelService) saveState(ctx context.Context, name string, m *controlpanel.Model, digest string) error {
	if s.states == nil {
		return nil
	}
	state, err := m.ExportState()
	if err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	favoriteIDs, err := modelFavoriteIDs(m)
	if err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	data, err := encodeSavedState(stateFingerprint(digest, favoriteIDs), state)
	if err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	if err := s.states.SaveState(ctx, name, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
