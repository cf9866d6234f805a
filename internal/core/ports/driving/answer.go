package driving

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// AnswerService answers batches of questions grounded in a session's documents.
type AnswerService interface {
	// AnswerQueries answers each query in order and returns one Answer per query.
	AnswerQueries(ctx context.Context, sessionID string, queries []string) ([]domain.Answer, error)
}
