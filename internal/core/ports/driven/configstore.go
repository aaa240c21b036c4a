package driven

// ConfigStore provides access to application configuration.
// Keys are dot separated ("views.default"); implementations map them onto
// nested tables and handle type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString returns "" if the key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is missing or not a whole number.
	GetInt(key string) int

	// GetFloat returns 0 if the key is missing or not a number.
	GetFloat(key string) float64

	// GetBool returns false if the key is missing or not a boolean.
	GetBool(key string) bool

	// GetStringSlice returns nil if the key is missing or not a list.
	GetStringSlice(key string) []string

	// Set stores a configuration value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage, replacing what is held.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
