package domain

import (
	"fmt"
	"maps"
	"time"
)

// AIProvider identifies a service that produces embeddings or completions.
type AIProvider string

// Supported providers.
const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

const unknownDescription = "Unknown"

// providerTraits is what the app needs to know about a provider.
type providerTraits struct {
	label      string
	local      bool
	embeds     bool
	embedModel string
	llmModel   string
}

// providers lists providers in menu order.
var providers = []struct {
	id AIProvider
	providerTraits
}{
	{AIProviderOllama, providerTraits{label: "Ollama (local)", local: true, embeds: true, embedModel: "nomic-embed-text", llmModel: "llama3.2"}},
	{AIProviderOpenAI, providerTraits{label: "OpenAI (cloud)", embeds: true, embedModel: "text-embedding-3-small", llmModel: "gpt-4o-mini"}},
	{AIProviderAnthropic, providerTraits{label: "Anthropic (cloud)", llmModel: "claude-3-5-sonnet-latest"}},
}

func (p AIProvider) traits() (providerTraits, bool) {
	for _, known := range providers {
		if known.id == p {
			return known.providerTraits, true
		}
	}
	return providerTraits{}, false
}

// IsValid reports whether p is a supported provider.
func (p AIProvider) IsValid() bool {
	_, ok := p.traits()
	return ok
}

// RequiresAPIKey reports whether p is a hosted API that needs a key.
func (p AIProvider) RequiresAPIKey() bool {
	t, ok := p.traits()
	return ok && !t.local
}

// IsLocal reports whether p runs on this machine.
func (p AIProvider) IsLocal() bool {
	t, _ := p.traits()
	return t.local
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the label shown in menus and settings output.
func (p AIProvider) Description() string {
	if t, ok := p.traits(); ok {
		return t.label
	}
	return unknownDescription
}

// ready reports whether provider and key are enough to open a connection.
func ready(p AIProvider, apiKey string) bool {
	return p.IsValid() && (apiKey != "" || !p.RequiresAPIKey())
}

// EmbeddingSettings selects the embedding provider. BaseURL only matters
// for local providers and APIKey only for hosted ones.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether an embedding service can be created.
func (e EmbeddingSettings) IsConfigured() bool {
	return ready(e.Provider, e.APIKey)
}

// LLMSettings selects the completion provider.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether an LLM service can be created.
func (l LLMSettings) IsConfigured() bool {
	return ready(l.Provider, l.APIKey)
}

// AnswerFailurePolicy decides what a batch does when one query fails.
type AnswerFailurePolicy string

// Available failure policies.
const (
	// FailurePolicyAbort stops the batch at the first failure.
	FailurePolicyAbort AnswerFailurePolicy = "abort"

	// FailurePolicyContinue records the failure on the answer and moves on.
	FailurePolicyContinue AnswerFailurePolicy = "continue"
)

// IsValid returns true if the policy is recognised.
func (p AnswerFailurePolicy) IsValid() bool {
	return p == FailurePolicyAbort || p == FailurePolicyContinue
}

// String returns the string representation.
func (p AnswerFailurePolicy) String() string {
	return string(p)
}

// Engine defaults.
const (
	DefaultSimilarityThreshold = 0.8
	DefaultTopK                = 3
	DefaultChunkSize           = 1000
	DefaultGenerationInterval  = 2 * time.Second
	DefaultLeaderboardLimit    = 50
)

// EngineSettings holds the tunables of the matching engine.
type EngineSettings struct {
	// SimilarityThreshold is the cosine similarity at or above which
	// two questions are treated as the same question.
	SimilarityThreshold float64

	// TopK is the number of chunks used to ground each answer.
	TopK int

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// GenerationInterval is the minimum delay between two generation calls.
	GenerationInterval time.Duration

	// AnswerFailurePolicy decides whether a failed query aborts the batch.
	AnswerFailurePolicy AnswerFailurePolicy
}

// Validate rejects out-of-range engine settings.
func (e EngineSettings) Validate() error {
	switch {
	case e.SimilarityThreshold < 0 || e.SimilarityThreshold > 1:
		return fmt.Errorf("%w: similarity threshold must be within [0, 1], got %v", ErrInvalidInput, e.SimilarityThreshold)
	case e.TopK <= 0:
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, e.TopK)
	case e.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, e.ChunkSize)
	case e.GenerationInterval < 0:
		return fmt.Errorf("%w: generation interval must not be negative", ErrInvalidInput)
	case !e.AnswerFailurePolicy.IsValid():
		return fmt.Errorf("%w: unknown answer failure policy %q", ErrInvalidInput, e.AnswerFailurePolicy)
	}
	return nil
}

// DefaultEngineSettings returns the engine defaults.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		SimilarityThreshold: DefaultSimilarityThreshold,
		TopK:                DefaultTopK,
		ChunkSize:           DefaultChunkSize,
		GenerationInterval:  DefaultGenerationInterval,
		AnswerFailurePolicy: FailurePolicyAbort,
	}
}

// AppSettings is everything persisted in config.toml.
type AppSettings struct {
	Engine    EngineSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
}

// DefaultAppSettings returns engine defaults with no AI provider chosen.
func DefaultAppSettings() AppSettings {
	return AppSettings{Engine: DefaultEngineSettings()}
}

// AllEmbeddingProviders returns the providers that can embed text.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, p := range providers {
		if p.embeds {
			out = append(out, p.id)
		}
	}
	return out
}

// AllLLMProviders returns every provider, all of which generate text.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.id)
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to its suggested model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, p := range providers {
		if p.embeds {
			out[p.id] = p.embedModel
		}
	}
	return out
}

// DefaultLLMModels maps each provider to its suggested completion model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(providers))
	for _, p := range providers {
		out[p.id] = p.llmModel
	}
	return out
}

// knownDimensions holds vector sizes of common embedding models, used when
// a provider does not report one.
var knownDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// EmbeddingDimensions returns a copy of the known model dimensions.
func EmbeddingDimensions() map[string]int {
	return maps.Clone(knownDimensions)
}
