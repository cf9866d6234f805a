package driven

import "context"

// LLMService completes prompts. It writes grounded answers and backs the
// question extractor.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string

	// Ping makes the cheapest request the provider allows, to check the
	// endpoint and credentials.
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions tunes one completion. Zero values leave the provider's
// defaults in place.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}
