package driven

// ConfigStore holds raw configuration values addressed by dot-notation keys,
// e.g. "llm.provider". Values keep the type they were decoded or set with;
// the settings service converts them.
type ConfigStore interface {
	// Get returns the value at key and whether it is set.
	Get(key string) (any, bool)

	// Set stores value at key and persists it.
	Set(key string, value any) error

	// Path describes where values are persisted.
	Path() string
}
