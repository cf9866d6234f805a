package driven

import "github.com/qplens/qplens/internal/core/domain"

// AIConfigValidator checks provider settings by connecting to the provider.
// Unconfigured settings are not an error.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
