package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

// Ensure QuestionStore implements the interface.
var _ driven.QuestionStore = (*QuestionStore)(nil)

// QuestionStore is an in-memory implementation of driven.QuestionStore.
// Creation order is the order of Save calls.
type QuestionStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*domain.Question
}

// NewQuestionStore creates a new in-memory question store.
func NewQuestionStore() *QuestionStore {
	return &QuestionStore{
		byID: make(map[string]*domain.Question),
	}
}

// Save inserts a new question.
func (s *QuestionStore) Save(_ context.Context, q *domain.Question) error {
	if q == nil || q.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[q.ID]; exists {
		return domain.ErrAlreadyExists
	}
	stored := cloneQuestion(*q)
	s.byID[q.ID] = &stored
	s.order = append(s.order, q.ID)
	return nil
}

// Get retrieves a question by ID.
func (s *QuestionStore) Get(_ context.Context, id string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneQuestion(*q)
	return &out, nil
}

// ListExcludingPaper returns every question not owned by paperID, in creation order.
func (s *QuestionStore) ListExcludingPaper(_ context.Context, paperID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Question, 0, len(s.order))
	for _, id := range s.order {
		q := s.byID[id]
		if q.PaperID == paperID {
			continue
		}
		result = append(result, cloneQuestion(*q))
	}
	return result, nil
}

// IncrementOccurrence raises the occurrence count if the revision still matches.
func (s *QuestionStore) IncrementOccurrence(_ context.Context, id string, expectedRevision int64) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if q.Revision != expectedRevision {
		return nil, domain.ErrConflict
	}
	q.OccurrenceCount++
	q.Revision++
	q.UpdatedAt = time.Now()
	out := cloneQuestion(*q)
	return &out, nil
}

// TopByOccurrence returns up to limit questions, most frequent first.
func (s *QuestionStore) TopByOccurrence(_ context.Context, limit int) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Question, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, cloneQuestion(*s.byID[id]))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OccurrenceCount > result[j].OccurrenceCount
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the number of stored questions.
func (s *QuestionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Embedding = append([]float32(nil), q.Embedding...)
	q.Similar = append([]domain.SimilarLink(nil), q.Similar...)
	if q.Marks != nil {
		m := *q.Marks
		q.Marks = &m
	}
	return q
}
