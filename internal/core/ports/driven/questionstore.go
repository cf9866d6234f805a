package driven

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// QuestionStore persists recurring questions.
// Questions are only ever inserted or have their occurrence count raised.
type QuestionStore interface {
	// Save inserts a new question. Returns domain.ErrAlreadyExists if the ID is taken.
	Save(ctx context.Context, q *domain.Question) error

	// Get retrieves a question by ID.
	Get(ctx context.Context, id string) (*domain.Question, error)

	// ListExcludingPaper returns every question not owned by paperID, in creation order.
	ListExcludingPaper(ctx context.Context, paperID string) ([]domain.Question, error)

	// IncrementOccurrence adds one to the occurrence count of a question if its
	// stored revision still equals expectedRevision. On success the updated
	// question is returned. A stale revision yields domain.ErrConflict.
	IncrementOccurrence(ctx context.Context, id string, expectedRevision int64) (*domain.Question, error)

	// TopByOccurrence returns up to limit questions ordered by occurrence count
	// descending, ties broken by creation order.
	TopByOccurrence(ctx context.Context, limit int) ([]domain.Question, error)

	// Count returns the number of stored questions.
	Count(ctx context.Context) (int, error)
}
