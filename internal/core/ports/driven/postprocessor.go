package driven

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// PostProcessor derives chunks from a normalised document. A chunker
// receives nil chunks and returns new ones; the caller sets the session
// and embedding on each.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}
