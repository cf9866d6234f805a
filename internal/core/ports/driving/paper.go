package driving

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// PaperService processes uploaded question papers.
type PaperService interface {
	// ProcessUpload records a paper, extracts its questions and merges them
	// into the recurring-question corpus.
	ProcessUpload(ctx context.Context, rawText string, meta domain.PaperMeta) (*domain.UploadResult, error)

	// Get retrieves a paper by ID.
	Get(ctx context.Context, id string) (*domain.Paper, error)

	// List returns all papers, newest first.
	List(ctx context.Context) ([]domain.Paper, error)
}

// RecurrenceTracker decides whether a question was seen before and counts recurrences.
type RecurrenceTracker interface {
	// Resolve compares the embedding of content against every question not
	// owned by excludePaperID. When the best match reaches threshold its
	// occurrence count is raised by one.
	Resolve(ctx context.Context, content string, embedding []float32, excludePaperID string, threshold float64) (*domain.Resolution, error)
}
