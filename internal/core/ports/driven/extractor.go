package driven

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// QuestionExtractor pulls individual questions out of a paper's raw text.
type QuestionExtractor interface {
	// Extract returns the questions found in rawText, in paper order.
	Extract(ctx context.Context, rawText string) ([]domain.ExtractedQuestion, error)
}
