package mcp

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
)

// mockLeaderboardService is a mock implementation of driving.LeaderboardService.
type mockLeaderboardService struct {
	entries   []domain.LeaderboardEntry
	err       error
	lastLimit int
}

func (m *mockLeaderboardService) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	m.lastLimit = limit
	return m.entries, m.err
}

// mockPaperService is a mock implementation of driving.PaperService.
type mockPaperService struct {
	result   *domain.UploadResult
	paper    *domain.Paper
	papers   []domain.Paper
	err      error
	lastText string
	lastMeta domain.PaperMeta
}

func (m *mockPaperService) ProcessUpload(_ context.Context, rawText string, meta domain.PaperMeta) (*domain.UploadResult, error) {
	m.lastText = rawText
	m.lastMeta = meta
	return m.result, m.err
}

func (m *mockPaperService) Get(_ context.Context, _ string) (*domain.Paper, error) {
	return m.paper, m.err
}

func (m *mockPaperService) List(_ context.Context) ([]domain.Paper, error) {
	return m.papers, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	indexResult *domain.IndexResult
	chunks      []domain.ScoredChunk
	err         error
	lastDocs    []domain.Document
	lastK       int
}

func (m *mockRetrievalService) IndexDocuments(_ context.Context, _ string, docs []domain.Document) (*domain.IndexResult, error) {
	m.lastDocs = docs
	return m.indexResult, m.err
}

func (m *mockRetrievalService) Query(_ context.Context, _ string, _ []float32, k int) ([]domain.ScoredChunk, error) {
	m.lastK = k
	return m.chunks, m.err
}

func (m *mockRetrievalService) QueryText(_ context.Context, _, _ string, k int) ([]domain.ScoredChunk, error) {
	m.lastK = k
	return m.chunks, m.err
}

func (m *mockRetrievalService) DropSession(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answers []domain.Answer
	err     error
}

func (m *mockAnswerService) AnswerQueries(_ context.Context, _ string, _ []string) ([]domain.Answer, error) {
	return m.answers, m.err
}

// mockNormaliserRegistry is a mock implementation of driven.NormaliserRegistry.
type mockNormaliserRegistry struct {
	content string
	err     error
}

func (m *mockNormaliserRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{Name: raw.URI, Content: m.content}, nil
}

func (m *mockNormaliserRegistry) Register(_ driven.Normaliser) {}

func (m *mockNormaliserRegistry) SupportedMIMETypes() []string { return nil }
