// Package ai builds the embedding, LLM and extraction services from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/qplens/qplens/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/qplens/qplens/internal/adapters/driven/embedding/openai"
	"github.com/qplens/qplens/internal/adapters/driven/extractor"
	anthropicllm "github.com/qplens/qplens/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/qplens/qplens/internal/adapters/driven/llm/ollama"
	openaillm "github.com/qplens/qplens/internal/adapters/driven/llm/openai"
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/logger"
)

// pingTimeout bounds each connectivity check at startup.
const pingTimeout = 5 * time.Second

const checkHint = "Run 'qplens settings show' to check it"

// InitResult holds the AI services a command may use. A nil service is
// unavailable and Warnings says why.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Extractor        driven.QuestionExtractor
	PromptStore      driven.PromptStore
	Warnings         []string
}

// Close releases the services that were created.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Initialise builds and pings every AI service the settings describe.
// Failures become warnings so commands that need no AI still run.
func Initialise(settings *domain.AppSettings, prompts driven.PromptStore) *InitResult {
	result := &InitResult{PromptStore: prompts}
	warn := func(msg string) {
		logger.Debug("AI: %s", msg)
		result.Warnings = append(result.Warnings, msg)
	}

	if !settings.Embedding.IsConfigured() {
		warn("embedding provider not configured. Run 'qplens settings set embedding.provider <ollama|openai>'")
	} else if svc, err := connect(NewEmbeddingService(&settings.Embedding)); err != nil {
		warn(fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, checkHint).Error())
	} else {
		result.EmbeddingService = svc
	}

	if !settings.LLM.IsConfigured() {
		warn("LLM provider not configured. Run 'qplens settings set llm.provider <ollama|openai|anthropic>'")
	} else if svc, err := connect(NewLLMService(&settings.LLM)); err != nil {
		warn(fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, checkHint).Error())
	} else {
		result.LLMService = svc
		ex := extractor.New(svc)
		if prompts != nil {
			ex.SetPromptStore(prompts)
		}
		result.Extractor = ex
	}

	return result
}

// NewEmbeddingService creates the embedding service for the configured
// provider. It returns nil, nil when no usable provider is configured.
func NewEmbeddingService(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if s == nil || !s.IsConfigured() {
		return nil, nil
	}

	// Zero lets each adapter fall back to its own default for the model.
	dims := domain.EmbeddingDimensions()[s.Model]

	switch s.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		})
	case domain.AIProviderAnthropic:
		return nil, errors.New("anthropic does not support embeddings, use ollama or openai")
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", s.Provider)
	}
}

// NewLLMService creates the LLM service for the configured provider. It
// returns nil, nil when no usable provider is configured.
func NewLLMService(s *domain.LLMSettings) (driven.LLMService, error) {
	if s == nil || !s.IsConfigured() {
		return nil, nil
	}

	switch s.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

type service interface {
	Ping(ctx context.Context) error
	Close() error
}

// connect pings a freshly created service and closes it when unreachable.
// A nil service passes through.
func connect[S service](svc S, err error) (S, error) {
	var zero S
	if err != nil || any(svc) == nil {
		return zero, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return zero, fmt.Errorf("service unreachable (%w)", err)
	}
	return svc, nil
}
