package driven

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// ChunkStore persists embedded chunks grouped by session.
type ChunkStore interface {
	// SaveChunks stores chunks. Every chunk must carry an embedding.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// ListBySession returns all chunks of a session in insertion order.
	// An unknown session yields an empty slice.
	ListBySession(ctx context.Context, sessionID string) ([]domain.Chunk, error)

	// DeleteSession removes every chunk of a session.
	// Returns the number of chunks removed.
	DeleteSession(ctx context.Context, sessionID string) (int, error)
}
