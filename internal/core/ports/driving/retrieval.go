package driving

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// RetrievalService indexes study documents per session and finds the
// passages most relevant to a query.
type RetrievalService interface {
	// IndexDocuments chunks, embeds and stores documents under sessionID.
	// An empty sessionID starts a new session.
	IndexDocuments(ctx context.Context, sessionID string, docs []domain.Document) (*domain.IndexResult, error)

	// Query returns at most k chunks of the session, most similar first.
	Query(ctx context.Context, sessionID string, embedding []float32, k int) ([]domain.ScoredChunk, error)

	// QueryText embeds text and runs Query with it.
	QueryText(ctx context.Context, sessionID, text string, k int) ([]domain.ScoredChunk, error)

	// DropSession deletes every chunk of a session and returns how many were removed.
	DropSession(ctx context.Context, sessionID string) (int, error)
}
