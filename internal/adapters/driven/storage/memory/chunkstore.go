package memory

import (
	"context"
	"sync"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		sessions: make(map[string][]domain.Chunk),
	}
}

// SaveChunks appends chunks to their sessions.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if chunks[i].SessionID == "" || len(chunks[i].Embedding) == 0 {
			return domain.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.sessions[c.SessionID] = append(s.sessions[c.SessionID], c)
	}
	return nil
}

// ListBySession returns the chunks of a session in insertion order.
func (s *ChunkStore) ListBySession(_ context.Context, sessionID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.sessions[sessionID]
	result := make([]domain.Chunk, len(chunks))
	copy(result, chunks)
	return result, nil
}

// DeleteSession removes every chunk of a session.
func (s *ChunkStore) DeleteSession(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.sessions[sessionID])
	delete(s.sessions, sessionID)
	return n, nil
}
