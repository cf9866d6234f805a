package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

// Ensure PaperStore implements the interface.
var _ driven.PaperStore = (*PaperStore)(nil)

// PaperStore is an in-memory implementation of driven.PaperStore.
type PaperStore struct {
	mu     sync.RWMutex
	papers map[string]domain.Paper
	seq    map[string]int
}

// NewPaperStore creates a new in-memory paper store.
func NewPaperStore() *PaperStore {
	return &PaperStore{
		papers: make(map[string]domain.Paper),
		seq:    make(map[string]int),
	}
}

// Save inserts a new paper.
func (s *PaperStore) Save(_ context.Context, p *domain.Paper) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.papers[p.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.papers[p.ID] = clonePaper(*p)
	s.seq[p.ID] = len(s.seq)
	return nil
}

// Get retrieves a paper by ID.
func (s *PaperStore) Get(_ context.Context, id string) (*domain.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.papers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := clonePaper(p)
	return &out, nil
}

// UpdateAggregates writes the question counts and ID lists of a paper.
func (s *PaperStore) UpdateAggregates(_ context.Context, p *domain.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.papers[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.TotalCount = p.TotalCount
	stored.NewCount = p.NewCount
	stored.ReusedCount = p.ReusedCount
	stored.QuestionIDs = append([]string(nil), p.QuestionIDs...)
	stored.ReusedQuestionIDs = append([]string(nil), p.ReusedQuestionIDs...)
	stored.UpdatedAt = time.Now()
	s.papers[p.ID] = stored
	return nil
}

// List returns all papers, newest first.
func (s *PaperStore) List(_ context.Context) ([]domain.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Paper, 0, len(s.papers))
	for _, p := range s.papers {
		result = append(result, clonePaper(p))
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID] > s.seq[result[j].ID]
	})
	return result, nil
}

func clonePaper(p domain.Paper) domain.Paper {
	p.QuestionIDs = append([]string(nil), p.QuestionIDs...)
	p.ReusedQuestionIDs = append([]string(nil), p.ReusedQuestionIDs...)
	return p
}
