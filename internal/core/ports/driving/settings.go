package driving

import "github.com/qplens/qplens/internal/core/domain"

// SettingsService reads and changes the persisted settings.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetEngine rejects out-of-range tunables before saving them.
	SetEngine(engine domain.EngineSettings) error

	// SetValue stores one setting by config key, such as "engine.top_k".
	// Unknown keys and unparsable values fail with domain.ErrInvalidInput.
	SetValue(key, value string) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the stored settings without contacting providers.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the configured
	// provider.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
