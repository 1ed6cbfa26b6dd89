package driving

import "github.com/custodia-labs/docchat/internal/core/domain"

// SettingsService resolves application settings from the config file and environment.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then environment overrides.
	Get() (*domain.AppSettings, error)

	// Set stores a value in the config file under a dot-notation key such as "llm.provider".
	Set(key, value string) error

	// Keys returns every recognised config key.
	Keys() []string

	// Validate resolves settings and checks them with AppSettings.Validate.
	Validate() error

	// Path returns the config file location.
	Path() string
}
