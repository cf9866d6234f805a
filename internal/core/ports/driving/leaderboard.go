package driving

import (
	"context"

	"github.com/qplens/qplens/internal/core/domain"
)

// LeaderboardService ranks questions by how often they recur.
type LeaderboardService interface {
	// Leaderboard returns up to limit questions, most frequent first.
	// A limit of zero or less uses the default.
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}
