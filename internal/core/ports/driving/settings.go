package driving

import "github.com/custodia-labs/cpanel/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetDefaultView sets the view opened when none is named.
	SetDefaultView(name string) error

	// SetOutput sets the CLI output format.
	SetOutput(format domain.OutputFormat) error

	// EnableExtension adds an extension to the enabled list.
	EnableExtension(id string) error

	// DisableExtension removes an extension from the enabled list.
	DisableExtension(id string) error

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
