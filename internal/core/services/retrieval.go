package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
	"github.com/qplens/qplens/internal/core/similarity"
	"github.com/qplens/qplens/internal/logger"
)

var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService indexes session documents and ranks their chunks by
// cosine similarity. Lookups are a linear scan over the session's chunks.
type RetrievalService struct {
	chunkStore       driven.ChunkStore
	chunker          driven.PostProcessor
	embeddingService driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
// The embeddingService parameter is optional (can be nil); indexing and
// text queries then fail with domain.ErrEmbeddingUnavailable.
func NewRetrievalService(
	chunkStore driven.ChunkStore,
	chunker driven.PostProcessor,
	embeddingService driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		chunkStore:       chunkStore,
		chunker:          chunker,
		embeddingService: embeddingService,
	}
}

// IndexDocuments chunks and embeds every document and stores the chunks under sessionID.
// Chunks of one document are stored together once all of them are embedded.
func (s *RetrievalService) IndexDocuments(
	ctx context.Context, sessionID string, docs []domain.Document,
) (*domain.IndexResult, error) {
	logger.Section("Indexing")

	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents to index", domain.ErrInvalidInput)
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
		logger.Debug("Started session %s", sessionID)
	}

	result := &domain.IndexResult{SessionID: sessionID}
	for i := range docs {
		doc := &docs[i]
		chunks, err := s.chunker.Process(ctx, doc, nil)
		if err != nil {
			return result, fmt.Errorf("chunk %s: %w", doc.Name, err)
		}
		logger.Debug("Document %q: %d chunks", doc.Name, len(chunks))

		now := time.Now()
		for j := range chunks {
			emb, err := s.embeddingService.Embed(ctx, chunks[j].Text)
			if err != nil {
				return result, fmt.Errorf("%w: embed chunk %d of %s: %w", domain.ErrProvider, j, doc.Name, err)
			}
			chunks[j].SessionID = sessionID
			chunks[j].Embedding = emb
			chunks[j].CreatedAt = now
		}

		if len(chunks) > 0 {
			if err := s.chunkStore.SaveChunks(ctx, chunks); err != nil {
				return result, fmt.Errorf("%w: save chunks of %s: %w", domain.ErrPersistence, doc.Name, err)
			}
		}
		result.DocumentCount++
		result.ChunkCount += len(chunks)
	}

	logger.Info("Indexed %d documents into %d chunks (session %s)",
		result.DocumentCount, result.ChunkCount, sessionID)
	return result, nil
}

// Query returns up to k chunks of the session, most similar first.
// Exact ties keep insertion order.
func (s *RetrievalService) Query(
	ctx context.Context, sessionID string, embedding []float32, k int,
) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	chunks, err := s.chunkStore.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list session chunks: %w", domain.ErrPersistence, err)
	}

	scored := make([]domain.ScoredChunk, len(chunks))
	for i := range chunks {
		if len(chunks[i].Embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d dimensions, session chunks have %d",
				domain.ErrInvalidInput, len(embedding), len(chunks[i].Embedding))
		}
		scored[i] = domain.ScoredChunk{
			Chunk: chunks[i],
			Score: similarity.Cosine(embedding, chunks[i].Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	logger.Debug("Session %s: %d of %d chunks returned", sessionID, len(scored), len(chunks))
	return scored, nil
}

// QueryText embeds text and queries the session with it.
func (s *RetrievalService) QueryText(
	ctx context.Context, sessionID, text string, k int,
) ([]domain.ScoredChunk, error) {
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is empty", domain.ErrInvalidInput)
	}

	emb, err := s.embeddingService.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrProvider, err)
	}
	return s.Query(ctx, sessionID, emb, k)
}

// DropSession deletes every chunk of a session.
func (s *RetrievalService) DropSession(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	n, err := s.chunkStore.DeleteSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: drop session: %w", domain.ErrPersistence, err)
	}
	logger.Debug("Dropped %d chunks of session %s", n, sessionID)
	return n, nil
}
