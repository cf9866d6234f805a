package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qplens/qplens/internal/adapters/driven/storage/memory"
	"github.com/qplens/qplens/internal/core/domain"
)

type stubAIValidator struct {
	embedErr error
	llmErr   error
}

func (v *stubAIValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return v.embedErr }
func (v *stubAIValidator) ValidateLLM(*domain.LLMSettings) error             { return v.llmErr }

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("engine.similarity_threshold", 0.65)
	_ = store.Set("engine.top_k", 5)
	_ = store.Set("engine.generation_interval_ms", 0)
	_ = store.Set("engine.answer_failure_policy", "continue")
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.InDelta(t, 0.65, settings.Engine.SimilarityThreshold, 1e-9)
	assert.Equal(t, 5, settings.Engine.TopK)
	assert.Equal(t, domain.DefaultChunkSize, settings.Engine.ChunkSize)
	assert.Equal(t, time.Duration(0), settings.Engine.GenerationInterval)
	assert.Equal(t, domain.FailurePolicyContinue, settings.Engine.AnswerFailurePolicy)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("engine.similarity_threshold", 1.5)
	_ = store.Set("engine.top_k", -1)
	_ = store.Set("engine.answer_failure_policy", "retry")
	_ = store.Set("embedding.provider", "invalid_provider")

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Engine, settings.Engine)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
}

func TestSettingsService_SaveAndGet_RoundTrip(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	want := &domain.AppSettings{
		Engine: domain.EngineSettings{
			SimilarityThreshold: 0.9,
			TopK:                4,
			ChunkSize:           500,
			GenerationInterval:  250 * time.Millisecond,
			AnswerFailurePolicy: domain.FailurePolicyContinue,
		},
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProviderAnthropic,
			Model:    "claude-3-5-sonnet-latest",
			APIKey:   "sk-ant",
		},
	}

	require.NoError(t, service.Save(want))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsService_Save_RejectsInvalidEngine(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	settings := domain.DefaultAppSettings()
	settings.Engine.TopK = 0

	err := service.Save(&settings)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, s *domain.AppSettings)
	}{
		{"threshold", "engine.similarity_threshold", "0.7", func(t *testing.T, s *domain.AppSettings) {
			assert.InDelta(t, 0.7, s.Engine.SimilarityThreshold, 1e-9)
		}},
		{"threshold zero", "engine.similarity_threshold", "0", func(t *testing.T, s *domain.AppSettings) {
			assert.Zero(t, s.Engine.SimilarityThreshold)
		}},
		{"top k", "engine.top_k", "7", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, 7, s.Engine.TopK)
		}},
		{"chunk size", "engine.chunk_size", "200", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, 200, s.Engine.ChunkSize)
		}},
		{"interval", "engine.generation_interval_ms", "1500", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, 1500*time.Millisecond, s.Engine.GenerationInterval)
		}},
		{"policy", "engine.answer_failure_policy", "Continue", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, domain.FailurePolicyContinue, s.Engine.AnswerFailurePolicy)
		}},
		{"llm provider", "llm.provider", "anthropic", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, domain.AIProviderAnthropic, s.LLM.Provider)
		}},
		{"embedding model", "embedding.model", "all-minilm", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "all-minilm", s.Embedding.Model)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(), nil)

			require.NoError(t, service.SetValue(tt.key, tt.value))

			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_SetValue_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "search.mode", "hybrid"},
		{"threshold not a number", "engine.similarity_threshold", "high"},
		{"threshold above one", "engine.similarity_threshold", "1.2"},
		{"top k zero", "engine.top_k", "0"},
		{"chunk size not int", "engine.chunk_size", "1.5"},
		{"negative interval", "engine.generation_interval_ms", "-1"},
		{"unknown policy", "engine.answer_failure_policy", "retry"},
		{"anthropic embeddings", "embedding.provider", "anthropic"},
		{"unknown llm", "llm.provider", "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(), nil)

			err := service.SetValue(tt.key, tt.value)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_SetEngine_KeepsProviders(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", "sk-test"))

	engine := domain.DefaultEngineSettings()
	engine.TopK = 9
	require.NoError(t, service.SetEngine(engine))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 9, settings.Engine.TopK)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
	assert.Equal(t, "sk-test", settings.LLM.APIKey)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama gets default model and url", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("openai requires key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("anthropic has no embeddings", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		err := service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	require.NoError(t, service.Validate())

	_ = store.Set("embedding.provider", "anthropic")

	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
}

func TestSettingsService_ValidateProviders(t *testing.T) {
	boom := errors.New("unreachable")

	t.Run("nil validator passes", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.NoError(t, service.ValidateLLMConfig())
	})

	t.Run("validator errors surface", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), &stubAIValidator{embedErr: boom, llmErr: boom})
		assert.ErrorIs(t, service.ValidateEmbeddingConfig(), boom)
		assert.ErrorIs(t, service.ValidateLLMConfig(), boom)
	})
}

func TestSettingKeys(t *testing.T) {
	keys := SettingKeys()

	assert.Len(t, keys, 13)
	assert.Contains(t, keys, "engine.similarity_threshold")
	assert.Contains(t, keys, "llm.api_key")
}

func TestSettingsService_Get_DecodedTypes(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.SetAll(map[string]any{
		"engine.top_k":                  int64(4),
		"engine.chunk_size":             "1200",
		"engine.similarity_threshold":   int64(1),
		"engine.generation_interval_ms": float64(250),
	}))

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Equal(t, 4, settings.Engine.TopK)
	assert.Equal(t, 1200, settings.Engine.ChunkSize)
	assert.InDelta(t, 1.0, settings.Engine.SimilarityThreshold, 1e-9)
	assert.Equal(t, 250*time.Millisecond, settings.Engine.GenerationInterval)
}

func TestSettingsService_Get_UnreadableValuesUseDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.SetAll(map[string]any{
		"engine.top_k":                "three",
		"engine.similarity_threshold": true,
		"llm.provider":                42,
	}))

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	defaults := domain.DefaultEngineSettings()
	assert.Equal(t, defaults.TopK, settings.Engine.TopK)
	assert.InDelta(t, defaults.SimilarityThreshold, settings.Engine.SimilarityThreshold, 1e-9)
	assert.Empty(t, settings.LLM.Provider)
}

type failingConfigStore struct {
	*memory.ConfigStore
}

func (failingConfigStore) SetAll(map[string]any) error { return errors.New("disk full") }

func TestSettingsService_Save_StoreError(t *testing.T) {
	service := NewSettingsService(failingConfigStore{memory.NewConfigStore()}, nil)

	err := service.SetValue("engine.top_k", "5")

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorContains(t, err, "disk full")
}
