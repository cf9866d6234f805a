package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
	"github.com/qplens/qplens/internal/logger"
)

// Ensure PaperService implements the interface.
var _ driving.PaperService = (*PaperService)(nil)

// charsPerPage estimates how much extracted text one printed page holds.
const charsPerPage = 3000

// PaperService records uploaded papers and folds their questions into the
// recurring-question corpus.
type PaperService struct {
	paperStore       driven.PaperStore
	questionStore    driven.QuestionStore
	tracker          driving.RecurrenceTracker
	extractor        driven.QuestionExtractor
	embeddingService driven.EmbeddingService
	threshold        float64
}

// NewPaperService creates a new paper service.
// The extractor and embeddingService parameters are optional (can be nil);
// uploads are refused without them.
func NewPaperService(
	paperStore driven.PaperStore,
	questionStore driven.QuestionStore,
	tracker driving.RecurrenceTracker,
	extractor driven.QuestionExtractor,
	embeddingService driven.EmbeddingService,
	threshold float64,
) *PaperService {
	return &PaperService{
		paperStore:       paperStore,
		questionStore:    questionStore,
		tracker:          tracker,
		extractor:        extractor,
		embeddingService: embeddingService,
		threshold:        threshold,
	}
}

// ProcessUpload records a paper and resolves each of its questions against
// the corpus. A question whose embedding or storage fails is skipped and
// counted; the rest of the paper still goes through. Paper aggregates are
// written once, after every question was handled.
func (s *PaperService) ProcessUpload(
	ctx context.Context, rawText string, meta domain.PaperMeta,
) (*domain.UploadResult, error) {
	logger.Section("Paper Upload")

	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: paper text is empty", domain.ErrInvalidInput)
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.extractor == nil {
		return nil, domain.ErrLLMUnavailable
	}

	now := time.Now()
	paper := &domain.Paper{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(meta.Title),
		Course:      strings.TrimSpace(meta.Course),
		Year:        meta.Year,
		Term:        meta.Term,
		UploadedBy:  meta.UploadedBy,
		FileURI:     meta.FileURI,
		PageCount:   estimatePages(rawText),
		WordCount:   domain.CountWords(rawText),
		ExtractedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.paperStore.Save(ctx, paper); err != nil {
		return nil, fmt.Errorf("%w: save paper: %w", domain.ErrPersistence, err)
	}
	logger.Info("Recorded paper %s (%s %d %s)", paper.ID, paper.Course, paper.Year, paper.Term)

	extracted, err := s.extractor.Extract(ctx, rawText)
	if err != nil {
		logger.Warn("Question extraction failed for paper %s, continuing with no questions: %v", paper.ID, err)
		extracted = nil
	}
	logger.Debug("Extracted %d questions", len(extracted))

	result := &domain.UploadResult{
		PaperID:    paper.ID,
		Title:      paper.Title,
		TotalCount: len(extracted),
	}
	papers := map[string]*domain.Paper{paper.ID: paper}

	for i := range extracted {
		eq := extracted[i]
		label := eq.Identifier
		if label == "" {
			label = fmt.Sprintf("%d", eq.Number)
		}

		content := strings.TrimSpace(eq.Content)
		if content == "" {
			logger.Warn("Skipping question %s: empty content", label)
			result.SkippedCount++
			continue
		}

		emb, err := s.embeddingService.Embed(ctx, content)
		if err != nil {
			logger.Warn("Skipping question %s: %v: %v", label, domain.ErrProvider, err)
			result.SkippedCount++
			continue
		}

		res, err := s.tracker.Resolve(ctx, content, emb, paper.ID, s.threshold)
		if err != nil {
			logger.Warn("Skipping question %s: %v", label, err)
			result.SkippedCount++
			continue
		}

		if res.Merged {
			paper.ReusedQuestionIDs = append(paper.ReusedQuestionIDs, res.Target.ID)
			result.Reused = append(result.Reused, domain.ReuseDetail{
				QuestionID:      res.Target.ID,
				Content:         res.Target.Content,
				Similarity:      res.Similarity,
				OccurrenceCount: res.Target.OccurrenceCount,
			})
			continue
		}

		q := &domain.Question{
			ID:              uuid.New().String(),
			Content:         content,
			Embedding:       emb,
			PaperID:         paper.ID,
			Number:          eq.Number,
			Identifier:      eq.Identifier,
			OccurrenceCount: 1,
			Marks:           eq.Marks,
			Difficulty:      domain.DifficultyUnknown,
			WordCount:       domain.CountWords(content),
			CreatedAt:       time.Now(),
		}
		q.UpdatedAt = q.CreatedAt
		if res.Nearest != nil {
			q.Similar = []domain.SimilarLink{s.similarLink(ctx, papers, res.Nearest, res.Similarity)}
		}

		if err := s.questionStore.Save(ctx, q); err != nil {
			logger.Warn("Skipping question %s: %v: %v", label, domain.ErrPersistence, err)
			result.SkippedCount++
			continue
		}
		paper.QuestionIDs = append(paper.QuestionIDs, q.ID)
	}

	paper.TotalCount = result.TotalCount
	paper.NewCount = len(paper.QuestionIDs)
	paper.ReusedCount = len(paper.ReusedQuestionIDs)
	if err := s.paperStore.UpdateAggregates(ctx, paper); err != nil {
		return nil, fmt.Errorf("%w: update paper aggregates: %w", domain.ErrPersistence, err)
	}

	result.NewCount = paper.NewCount
	result.ReusedCount = paper.ReusedCount
	logger.Info("Paper %s: %d questions, %d new, %d reused, %d skipped",
		paper.ID, result.TotalCount, result.NewCount, result.ReusedCount, result.SkippedCount)
	return result, nil
}

// similarLink describes the nearest below-threshold question. The paper of
// that question is looked up once per upload.
func (s *PaperService) similarLink(
	ctx context.Context, papers map[string]*domain.Paper, nearest *domain.Question, sim float64,
) domain.SimilarLink {
	link := domain.SimilarLink{QuestionID: nearest.ID, Similarity: sim}

	p, ok := papers[nearest.PaperID]
	if !ok {
		var err error
		p, err = s.paperStore.Get(ctx, nearest.PaperID)
		if err != nil {
			logger.Debug("Paper %s of similar question %s unavailable: %v", nearest.PaperID, nearest.ID, err)
			p = nil
		}
		papers[nearest.PaperID] = p
	}
	if p != nil {
		link.PaperYear = p.Year
		link.PaperTerm = p.Term
	}
	return link
}

// Get retrieves a paper by ID.
func (s *PaperService) Get(ctx context.Context, id string) (*domain.Paper, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: paper id is required", domain.ErrInvalidInput)
	}
	return s.paperStore.Get(ctx, id)
}

// List returns all papers, newest first.
func (s *PaperService) List(ctx context.Context) ([]domain.Paper, error) {
	papers, err := s.paperStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list papers: %w", domain.ErrPersistence, err)
	}
	return papers, nil
}

// estimatePages returns ceil(characters / charsPerPage), at least 1.
func estimatePages(text string) int {
	n := utf8.RuneCountInString(text)
	pages := (n + charsPerPage - 1) / charsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}
