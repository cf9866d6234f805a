package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
	"github.com/qplens/qplens/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// defaultAnswerPrompt is used when no prompt store is configured.
const defaultAnswerPrompt = `Based on the following context, please answer the question in a structured manner.

Context:
%s

Question: %s

Please provide a detailed, well-structured response with relevant information from the context.
Explain the concepts and provide examples where necessary.
Include section headings where appropriate and organise the information logically.`

// AnswerService answers question batches from a session's documents.
// Batches run one query at a time and generation calls are spaced at least
// the configured interval apart, also across concurrent batches.
type AnswerService struct {
	retrieval        driving.RetrievalService
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	promptStore      driven.PromptStore

	topK    int
	policy  domain.AnswerFailurePolicy
	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewAnswerService creates a new answer service.
// The embeddingService and llmService parameters are optional (can be nil);
// batches are refused without them.
func NewAnswerService(
	retrieval driving.RetrievalService,
	embeddingService driven.EmbeddingService,
	llmService driven.LLMService,
	engine domain.EngineSettings,
) *AnswerService {
	limit := rate.Inf
	if engine.GenerationInterval > 0 {
		limit = rate.Every(engine.GenerationInterval)
	}
	topK := engine.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	policy := engine.AnswerFailurePolicy
	if !policy.IsValid() {
		policy = domain.FailurePolicyAbort
	}

	return &AnswerService{
		retrieval:        retrieval,
		embeddingService: embeddingService,
		llmService:       llmService,
		topK:             topK,
		policy:           policy,
		limiter:          rate.NewLimiter(limit, 1),
	}
}

// SetPromptStore sets the prompt store for loading the answer prompt.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// AnswerQueries answers queries in input order.
//
// With the abort policy the first failing query ends the batch: the answers
// produced so far are returned together with the error. With the continue
// policy a failure is recorded on that query's Answer and the batch goes on.
func (s *AnswerService) AnswerQueries(
	ctx context.Context, sessionID string, queries []string,
) ([]domain.Answer, error) {
	logger.Section("Answer Generation")

	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if queries == nil {
		return nil, fmt.Errorf("%w: queries must be a list", domain.ErrInvalidInput)
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.llmService == nil {
		return nil, domain.ErrLLMUnavailable
	}

	template := s.loadPrompt()

	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make([]domain.Answer, 0, len(queries))
	for i, query := range queries {
		logger.Debug("Query %d/%d: %q", i+1, len(queries), query)
		answer, err := s.answerOne(ctx, sessionID, query, template)
		if err != nil {
			if s.policy == domain.FailurePolicyAbort {
				return answers, fmt.Errorf("query %d: %w", i+1, err)
			}
			logger.Warn("Query %d failed, continuing: %v", i+1, err)
			answer.Err = err
		}
		answers = append(answers, answer)
	}

	logger.Info("Answered %d queries for session %s", len(answers), sessionID)
	return answers, nil
}

func (s *AnswerService) answerOne(
	ctx context.Context, sessionID, query, template string,
) (domain.Answer, error) {
	answer := domain.Answer{Query: query}

	emb, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return answer, fmt.Errorf("%w: embed query: %w", domain.ErrProvider, err)
	}

	sources, err := s.retrieval.Query(ctx, sessionID, emb, s.topK)
	if err != nil {
		return answer, err
	}
	answer.Sources = sources

	texts := make([]string, len(sources))
	for i := range sources {
		texts[i] = sources[i].Chunk.Text
	}
	prompt := fmt.Sprintf(template, strings.Join(texts, "\n"), query)

	if err := s.limiter.Wait(ctx); err != nil {
		return answer, err
	}
	start := time.Now()
	text, err := s.llmService.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return answer, fmt.Errorf("%w: generate: %w", domain.ErrProvider, err)
	}
	logger.Debug("Generated %d characters in %v", len(text), time.Since(start))

	answer.Text = strings.TrimSpace(text)
	return answer, nil
}

func (s *AnswerService) loadPrompt() string {
	if s.promptStore == nil {
		return defaultAnswerPrompt
	}
	tmpl, err := s.promptStore.Load(driven.PromptAnswer)
	if err != nil || strings.Count(tmpl, "%s") != 2 {
		logger.Debug("Using built-in answer prompt: %v", err)
		return defaultAnswerPrompt
	}
	return tmpl
}
