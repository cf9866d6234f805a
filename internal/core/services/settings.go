package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// Dotted keys in the config file. The api_key entries name secrets, they
// are not secrets themselves.
const (
	keyThreshold     = "engine.similarity_threshold"
	keyTopK          = "engine.top_k"
	keyChunkSize     = "engine.chunk_size"
	keyIntervalMS    = "engine.generation_interval_ms"
	keyFailurePolicy = "engine.answer_failure_policy"
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
)

// defaultOllamaURL is where a local Ollama listens by default.
const defaultOllamaURL = "http://localhost:11434"

// SettingKeys returns every key accepted by SetValue, in display order.
func SettingKeys() []string {
	return []string{
		keyThreshold, keyTopK, keyChunkSize, keyIntervalMS, keyFailurePolicy,
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
	}
}

// SettingsService reads and writes AppSettings through a flat key/value
// ConfigStore. The validator is optional; without it the connectivity
// checks pass.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService returns a SettingsService over configStore.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{configStore: configStore, aiValidator: aiValidator}
}

// Get assembles the stored settings. A key that is missing or out of range
// takes its default value.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Engine: domain.EngineSettings{
			SimilarityThreshold: s.getFloat(keyThreshold, defaults.Engine.SimilarityThreshold),
			TopK:                s.getInt(keyTopK, defaults.Engine.TopK),
			ChunkSize:           s.getInt(keyChunkSize, defaults.Engine.ChunkSize),
			GenerationInterval:  s.getInterval(defaults.Engine.GenerationInterval),
			AnswerFailurePolicy: s.getPolicy(defaults.Engine.AnswerFailurePolicy),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.lookupString(keyEmbedBaseURL),
			APIKey:   s.lookupString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.lookupString(keyLLMBaseURL),
			APIKey:   s.lookupString(keyLLMAPIKey),
		},
	}

	return settings, nil
}

// Save validates the engine section and writes every key at once.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Engine.Validate(); err != nil {
		return err
	}

	values := map[string]any{
		keyThreshold:     settings.Engine.SimilarityThreshold,
		keyTopK:          settings.Engine.TopK,
		keyChunkSize:     settings.Engine.ChunkSize,
		keyIntervalMS:    int(settings.Engine.GenerationInterval / time.Millisecond),
		keyFailurePolicy: settings.Engine.AnswerFailurePolicy.String(),
		keyEmbedProvider: settings.Embedding.Provider.String(),
		keyEmbedModel:    settings.Embedding.Model,
		keyEmbedBaseURL:  settings.Embedding.BaseURL,
		keyLLMProvider:   settings.LLM.Provider.String(),
		keyLLMModel:      settings.LLM.Model,
		keyLLMBaseURL:    settings.LLM.BaseURL,
	}
	// Empty API keys stay out of the config file.
	if settings.Embedding.APIKey != "" {
		values[keyEmbedAPIKey] = settings.Embedding.APIKey
	}
	if settings.LLM.APIKey != "" {
		values[keyLLMAPIKey] = settings.LLM.APIKey
	}

	if err := s.configStore.SetAll(values); err != nil {
		return fmt.Errorf("%w: save settings: %w", domain.ErrPersistence, err)
	}
	return nil
}

// SetEngine validates and persists engine tunables.
func (s *SettingsService) SetEngine(engine domain.EngineSettings) error {
	if err := engine.Validate(); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Engine = engine
	return s.Save(settings)
}

// SetValue parses value for key and stores it.
func (s *SettingsService) SetValue(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	settings, err := s.Get()
	if err != nil {
		return err
	}
	engine := settings.Engine

	switch key {
	case keyThreshold:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number: %q", domain.ErrInvalidInput, key, value)
		}
		engine.SimilarityThreshold = f
		return s.SetEngine(engine)

	case keyTopK, keyChunkSize, keyIntervalMS:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %q", domain.ErrInvalidInput, key, value)
		}
		switch key {
		case keyTopK:
			engine.TopK = n
		case keyChunkSize:
			engine.ChunkSize = n
		default:
			engine.GenerationInterval = time.Duration(n) * time.Millisecond
		}
		return s.SetEngine(engine)

	case keyFailurePolicy:
		engine.AnswerFailurePolicy = domain.AnswerFailurePolicy(strings.ToLower(value))
		return s.SetEngine(engine)

	case keyEmbedProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !slices.Contains(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrInvalidInput, value)
		}
		return s.configStore.Set(key, p.String())

	case keyLLMProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !slices.Contains(domain.AllLLMProviders(), p) {
			return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, value)
		}
		return s.configStore.Set(key, p.String())

	case keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey:
		return s.configStore.Set(key, value)

	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// providerSlot is the provider triple of one settings section.
type providerSlot struct {
	kind      string
	supported []domain.AIProvider
	models    map[domain.AIProvider]string
	target    func(*domain.AppSettings) (provider *domain.AIProvider, model, baseURL, apiKey *string)
}

var (
	embeddingSlot = providerSlot{
		kind:      "embedding",
		supported: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		target: func(a *domain.AppSettings) (*domain.AIProvider, *string, *string, *string) {
			return &a.Embedding.Provider, &a.Embedding.Model, &a.Embedding.BaseURL, &a.Embedding.APIKey
		},
	}
	llmSlot = providerSlot{
		kind:      "LLM",
		supported: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		target: func(a *domain.AppSettings) (*domain.AIProvider, *string, *string, *string) {
			return &a.LLM.Provider, &a.LLM.Model, &a.LLM.BaseURL, &a.LLM.APIKey
		},
	}
)

// SetEmbeddingProvider switches embeddings to provider. An empty model
// selects the provider's default.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	return s.setProvider(embeddingSlot, provider, model, apiKey)
}

// SetLLMProvider switches answer generation to provider. An empty model
// selects the provider's default.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	return s.setProvider(llmSlot, provider, model, apiKey)
}

func (s *SettingsService) setProvider(slot providerSlot, provider domain.AIProvider, model, apiKey string) error {
	switch {
	case !slices.Contains(slot.supported, provider):
		return fmt.Errorf("%w: %q is not an %s provider", domain.ErrInvalidInput, provider, slot.kind)
	case provider.RequiresAPIKey() && apiKey == "":
		return fmt.Errorf("%w: %s needs an API key", domain.ErrInvalidInput, provider.Description())
	}
	if model == "" {
		model = slot.models[provider]
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	p, m, url, key := slot.target(settings)
	*p, *m, *key = provider, model, apiKey
	*url = baseURLFor(provider, *url)
	return s.Save(settings)
}

// Validate checks that the stored settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Engine.Validate(); err != nil {
		return err
	}
	if settings.Embedding.Provider != "" &&
		!slices.Contains(domain.AllEmbeddingProviders(), settings.Embedding.Provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	return nil
}

// GetDefaults returns the built-in settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the stored embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	return s.ping(func(v driven.AIConfigValidator, a *domain.AppSettings) error {
		return v.ValidateEmbedding(&a.Embedding)
	})
}

// ValidateLLMConfig pings the stored LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	return s.ping(func(v driven.AIConfigValidator, a *domain.AppSettings) error {
		return v.ValidateLLM(&a.LLM)
	})
}

func (s *SettingsService) ping(check func(driven.AIConfigValidator, *domain.AppSettings) error) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return check(s.aiValidator, settings)
}

// baseURLFor keeps a configured URL for local providers and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Stored values are whatever the store decoded: TOML gives int64 and
// float64, values set at runtime may be int or string.

func (s *SettingsService) lookupString(key string) string {
	v, _ := s.configStore.Get(key)
	str, _ := v.(string)
	return str
}

func (s *SettingsService) lookupNumber(key string) (float64, bool) {
	v, ok := s.configStore.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.lookupString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	n, ok := s.lookupNumber(key)
	if !ok || n < 1 {
		return defaultVal
	}
	return int(n)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	n, ok := s.lookupNumber(key)
	if !ok || n < 0 || n > 1 {
		return defaultVal
	}
	return n
}

func (s *SettingsService) getInterval(defaultVal time.Duration) time.Duration {
	ms, ok := s.lookupNumber(keyIntervalMS)
	if !ok || ms < 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *SettingsService) getPolicy(defaultVal domain.AnswerFailurePolicy) domain.AnswerFailurePolicy {
	policy := domain.AnswerFailurePolicy(s.lookupString(keyFailurePolicy))
	if !policy.IsValid() {
		return defaultVal
	}
	return policy
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.lookupString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
