package services

import (
	"fmt"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
	"github.com/custodia-labs/cpanel/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyViewsDir          = "views.dir"
	keyViewsDefault      = "views.default"
	keyStorageDir        = "storage.dir"
	keyOutputFormat      = "output.format"
	keyCombineFavorites  = "panel.allow_favorite_combination"
	keySearchMenuTypes   = "panel.search_menu_types"
	keyPanelUserID       = "panel.user_id"
	keyExtensions        = "extensions.enabled"
	keyAutocompleteRate  = "autocomplete.rate"
	keyAutocompleteBurst = "autocomplete.burst"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore    driven.ConfigStore
	knownExtension func(id string) bool
}

// NewSettingsService creates a new settings service. knownExtension, when
// set, is used to validate extension ids.
func NewSettingsService(configStore driven.ConfigStore, knownExtension func(id string) bool) *SettingsService {
	return &SettingsService{
		configStore:    configStore,
		knownExtension: knownExtension,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		ViewsDir:    s.getString(keyViewsDir, defaults.ViewsDir),
		DefaultView: s.getString(keyViewsDefault, defaults.DefaultView),
		StorageDir:  s.getString(keyStorageDir, defaults.StorageDir),
		Output:      s.getOutput(defaults.Output),
		Panel: domain.PanelSettings{
			AllowFavoriteCombination: s.getBool(keyCombineFavorites, defaults.Panel.AllowFavoriteCombination),
			SearchMenuTypes:          s.getMenuTypes(defaults.Panel.SearchMenuTypes),
			Extensions:               s.configStore.GetStringSlice(keyExtensions),
			UserID:                   s.getInt(keyPanelUserID, defaults.Panel.UserID),
		},
		Autocomplete: domain.AutocompleteSettings{
			Rate:  s.getFloat(keyAutocompleteRate, defaults.Autocomplete.Rate),
			Burst: s.getInt(keyAutocompleteBurst, defaults.Autocomplete.Burst),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	menuTypes := make([]string, 0, len(settings.Panel.SearchMenuTypes))
	for _, t := range settings.Panel.SearchMenuTypes {
		menuTypes = append(menuTypes, t.String())
	}

	values := []struct {
		key   string
		value any
	}{
		{keyViewsDir, settings.ViewsDir},
		{keyViewsDefault, settings.DefaultView},
		{keyStorageDir, settings.StorageDir},
		{keyOutputFormat, settings.Output.String()},
		{keyCombineFavorites, settings.Panel.AllowFavoriteCombination},
		{keySearchMenuTypes, menuTypes},
		{keyPanelUserID, settings.Panel.UserID},
		{keyExtensions, append([]string{}, settings.Panel.Extensions...)},
		{keyAutocompleteRate, settings.Autocomplete.Rate},
		{keyAutocompleteBurst, settings.Autocomplete.Burst},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetDefaultView sets the view opened when none is named.
func (s *SettingsService) SetDefaultView(name string) error {
	if name == "" {
		return fmt.Errorf("%w: view name is required", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyViewsDefault, name)
}

// SetOutput sets the CLI output format.
func (s *SettingsService) SetOutput(format domain.OutputFormat) error {
	if !format.IsValid() {
		return fmt.Errorf("invalid output format: %s", format)
	}
	return s.configStore.Set(keyOutputFormat, format.String())
}

// EnableExtension adds an extension to the enabled list.
func (s *SettingsService) EnableExtension(id string) error {
	if s.knownExtension != nil && !s.knownExtension(id) {
		return fmt.Errorf("extension %q: %w", id, domain.ErrUnsupportedType)
	}
	enabled := s.configStore.GetStringSlice(keyExtensions)
	for _, e := range enabled {
		if e == id {
			return nil
		}
	}
	return s.configStore.Set(keyExtensions, append(enabled, id))
}

// DisableExtension removes an extension from the enabled list.
func (s *SettingsService) DisableExtension(id string) error {
	enabled := s.configStore.GetStringSlice(keyExtensions)
	kept := make([]string, 0, len(enabled))
	for _, e := range enabled {
		if e != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(enabled) {
		return fmt.Errorf("extension %q: %w", id, domain.ErrNotFound)
	}
	return s.configStore.Set(keyExtensions, kept)
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if raw := s.configStore.GetString(keyOutputFormat); raw != "" && !domain.OutputFormat(raw).IsValid() {
		return fmt.Errorf("invalid output format: %s", raw)
	}
	for _, raw := range s.configStore.GetStringSlice(keySearchMenuTypes) {
		if !domain.FilterType(raw).IsValid() {
			return fmt.Errorf("invalid search menu type: %s", raw)
		}
	}
	if settings.Autocomplete.Rate <= 0 {
		return fmt.Errorf("autocomplete rate must be positive, got %v", settings.Autocomplete.Rate)
	}
	if settings.Autocomplete.Burst < 1 {
		return fmt.Errorf("autocomplete burst must be at least 1, got %d", settings.Autocomplete.Burst)
	}
	if s.knownExtension != nil {
		for _, id := range settings.Panel.Extensions {
			if !s.knownExtension(id) {
				return fmt.Errorf("extension %q: %w", id, domain.ErrUnsupportedType)
			}
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getOutput(defaultVal domain.OutputFormat) domain.OutputFormat {
	val := s.configStore.GetString(keyOutputFormat)
	if val == "" {
		return defaultVal
	}
	format := domain.OutputFormat(val)
	if !format.IsValid() {
		return defaultVal
	}
	return format
}

func (s *SettingsService) getMenuTypes(defaultVal []domain.FilterType) []domain.FilterType {
	raw := s.configStore.GetStringSlice(keySearchMenuTypes)
	if len(raw) == 0 {
		return defaultVal
	}
	out := make([]domain.FilterType, 0, len(raw))
	for _, r := range raw {
		if t := domain.FilterType(r); t.IsValid() {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
