package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
	"github.com/qplens/qplens/internal/logger"
)

var _ driving.LeaderboardService = (*LeaderboardService)(nil)

// LeaderboardService ranks recurring questions. It never writes.
type LeaderboardService struct {
	questionStore driven.QuestionStore
	paperStore    driven.PaperStore
}

// NewLeaderboardService creates a new leaderboard service.
func NewLeaderboardService(questionStore driven.QuestionStore, paperStore driven.PaperStore) *LeaderboardService {
	return &LeaderboardService{
		questionStore: questionStore,
		paperStore:    paperStore,
	}
}

// Leaderboard returns up to limit questions ordered by occurrence count,
// ties in creation order, each with the summary of the paper that first
// recorded it.
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = domain.DefaultLeaderboardLimit
	}

	questions, err := s.questionStore.TopByOccurrence(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: rank questions: %w", domain.ErrPersistence, err)
	}

	summaries := make(map[string]domain.PaperSummary)
	entries := make([]domain.LeaderboardEntry, 0, len(questions))
	for i := range questions {
		q := questions[i]
		summary, ok := summaries[q.PaperID]
		if !ok {
			p, err := s.paperStore.Get(ctx, q.PaperID)
			switch {
			case err == nil:
				summary = p.Summary()
			case errors.Is(err, domain.ErrNotFound):
				logger.Debug("Paper %s of question %s not found", q.PaperID, q.ID)
				summary = domain.PaperSummary{ID: q.PaperID}
			default:
				return nil, fmt.Errorf("%w: load paper %s: %w", domain.ErrPersistence, q.PaperID, err)
			}
			summaries[q.PaperID] = summary
		}
		entries = append(entries, domain.LeaderboardEntry{Question: q, Paper: summary})
	}

	return entries, nil
}
