package driven

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// PaperStore persists uploaded papers.
type PaperStore interface {
	// Save inserts a new paper.
	Save(ctx context.Context, p *domain.Paper) error

	// Get retrieves a paper by ID.
	Get(ctx context.Context, id string) (*domain.Paper, error)

	// UpdateAggregates writes the question counts and ID lists of a processed paper.
	UpdateAggregates(ctx context.Context, p *domain.Paper) error

	// List returns all papers, newest first.
	List(ctx context.Context) ([]domain.Paper, error)
}
