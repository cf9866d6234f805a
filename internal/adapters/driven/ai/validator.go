package ai

import (
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings before they are saved by
// creating the service and pinging it once.
type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding returns nil for settings with no usable provider.
func (v *ConfigValidator) ValidateEmbedding(s *domain.EmbeddingSettings) error {
	svc, err := connect(NewEmbeddingService(s))
	if svc != nil {
		_ = svc.Close()
	}
	return err
}

// ValidateLLM returns nil for settings with no usable provider.
func (v *ConfigValidator) ValidateLLM(s *domain.LLMSettings) error {
	svc, err := connect(NewLLMService(s))
	if svc != nil {
		_ = svc.Close()
	}
	return err
}
