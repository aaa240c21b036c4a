package domain

// OutputFormat selects how the CLI prints results.
type OutputFormat string

// Available output formats.
const (
	// OutputFormatAuto uses table output on a terminal and JSON otherwise.
	OutputFormatAuto OutputFormat = "auto"

	// OutputFormatTable prints aligned text.
	OutputFormatTable OutputFormat = "table"

	// OutputFormatJSON prints JSON.
	OutputFormatJSON OutputFormat = "json"
)

// IsValid returns true if the output format is recognised.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatAuto, OutputFormatTable, OutputFormatJSON:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f OutputFormat) String() string {
	return string(f)
}

// PanelSettings holds control panel behaviour settings.
type PanelSettings struct {
	// AllowFavoriteCombination keeps other active favorites when one is activated.
	AllowFavoriteCombination bool

	// SearchMenuTypes lists the menus shown by the UIs.
	SearchMenuTypes []FilterType

	// Extensions lists the extension ids applied at startup.
	Extensions []string

	// UserID owns the private favorites saved from this machine.
	UserID int
}

// AutocompleteSettings throttles autocomplete round trips.
type AutocompleteSettings struct {
	// Rate is the sustained number of requests per second.
	Rate float64

	// Burst is the number of requests allowed at once.
	Burst int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// ViewsDir is the directory of search view files.
	ViewsDir string

	// DefaultView is opened when no view is named.
	DefaultView string

	// StorageDir holds the favorites database.
	StorageDir string

	// Output selects the CLI output format.
	Output OutputFormat

	// Panel holds control panel behaviour settings.
	Panel PanelSettings

	// Autocomplete holds autocomplete throttling settings.
	Autocomplete AutocompleteSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Directories are left empty and resolved against the home directory by adapters.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Output: OutputFormatAuto,
		Panel: PanelSettings{
			SearchMenuTypes: []FilterType{FilterTypeFilter, FilterTypeGroupBy, FilterTypeFavorite},
			UserID:          1,
		},
		Autocomplete: AutocompleteSettings{
			Rate:  5,
			Burst: 1,
		},
	}
}

// AllOutputFormats returns all available output formats.
func AllOutputFormats() []OutputFormat {
	return []OutputFormat{
		OutputFormatAuto,
		OutputFormatTable,
		OutputFormatJSON,
	}
}
