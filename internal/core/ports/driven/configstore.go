package driven

// ConfigStore holds configuration values under dotted keys such as
// "engine.top_k". Values keep the type they were decoded or set with.
type ConfigStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (any, bool)

	// Set stores one value and persists it.
	Set(key string, value any) error

	// SetAll stores several values and persists them once.
	SetAll(values map[string]any) error

	// Path returns where the configuration is persisted.
	Path() string
}
