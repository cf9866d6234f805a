package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

var errProviderDown = errors.New("provider down")

// mockEmbeddingService returns fixed vectors per text.
// Unknown texts get fallback, or an error when fallback is nil.
type mockEmbeddingService struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	failOn   map[string]bool
	calls    []string
}

func newMockEmbedder(vectors map[string][]float32) *mockEmbeddingService {
	return &mockEmbeddingService{vectors: vectors, failOn: make(map[string]bool)}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if m.failOn[text] {
		return nil, errProviderDown
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	if m.fallback != nil {
		return m.fallback, nil
	}
	return nil, errProviderDown
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return 2 }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService echoes prompts and records when it was called.
type mockLLMService struct {
	mu      sync.Mutex
	prompts []string
	times   []time.Time
	failOn  int // 1-based call number that fails, 0 for never
	reply   func(prompt string) string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.times = append(m.times, time.Now())
	if m.failOn == len(m.prompts) {
		return "", errProviderDown
	}
	if m.reply != nil {
		return m.reply(prompt), nil
	}
	return "generated answer", nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockExtractor returns a fixed list of questions.
type mockExtractor struct {
	questions []domain.ExtractedQuestion
	err       error
}

func (m *mockExtractor) Extract(_ context.Context, _ string) ([]domain.ExtractedQuestion, error) {
	return m.questions, m.err
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// failingPaperStore wraps a PaperStore and fails selected operations.
type failingPaperStore struct {
	driven.PaperStore
	failSave      bool
	failAggregate bool
}

func (f *failingPaperStore) Save(ctx context.Context, p *domain.Paper) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.PaperStore.Save(ctx, p)
}

func (f *failingPaperStore) UpdateAggregates(ctx context.Context, p *domain.Paper) error {
	if f.failAggregate {
		return errors.New("disk full")
	}
	return f.PaperStore.UpdateAggregates(ctx, p)
}

// conflictingQuestionStore reports a conflict on the first conditional update,
// after letting a competing writer increment the question.
type conflictingQuestionStore struct {
	driven.QuestionStore
	conflicts int
}

func (c *conflictingQuestionStore) IncrementOccurrence(
	ctx context.Context, id string, expectedRevision int64,
) (*domain.Question, error) {
	if c.conflicts > 0 {
		c.conflicts--
		if _, err := c.QuestionStore.IncrementOccurrence(ctx, id, expectedRevision); err != nil {
			return nil, err
		}
		return nil, domain.ErrConflict
	}
	return c.QuestionStore.IncrementOccurrence(ctx, id, expectedRevision)
}

func float64Ptr(v float64) *float64 {
	return &v
}
