package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
	"github.com/qplens/qplens/internal/core/similarity"
	"github.com/qplens/qplens/internal/logger"
)

var _ driving.RecurrenceTracker = (*RecurrenceTracker)(nil)

// maxIncrementAttempts bounds the retries of a conditional occurrence update.
const maxIncrementAttempts = 5

// RecurrenceTracker merges a new question into the most similar existing
// question of another paper, or reports it as new.
//
// The candidate snapshot is read before any write. Two uploads running at the
// same time can therefore both miss each other's new questions and record
// equivalent questions twice. Increments themselves never get lost: they are
// conditional on the question revision and retried on conflict.
type RecurrenceTracker struct {
	questionStore driven.QuestionStore
}

// NewRecurrenceTracker creates a new recurrence tracker.
func NewRecurrenceTracker(questionStore driven.QuestionStore) *RecurrenceTracker {
	return &RecurrenceTracker{questionStore: questionStore}
}

// Resolve finds the most similar question not owned by excludePaperID.
// Candidates are scanned in creation order and the first one seen wins ties.
// A best similarity at or above threshold merges: the candidate's occurrence
// count goes up by exactly one.
func (t *RecurrenceTracker) Resolve(
	ctx context.Context, content string, embedding []float32, excludePaperID string, threshold float64,
) (*domain.Resolution, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: embedding is empty", domain.ErrInvalidInput)
	}

	candidates, err := t.questionStore.ListExcludingPaper(ctx, excludePaperID)
	if err != nil {
		return nil, fmt.Errorf("%w: list candidates: %w", domain.ErrPersistence, err)
	}

	if len(candidates) == 0 {
		logger.Debug("No candidates for %q, recording as new", truncate(content, 60))
		return &domain.Resolution{}, nil
	}

	// Only a positive similarity makes a candidate the nearest one.
	best := -1
	var maxSim float64
	for i := range candidates {
		if len(candidates[i].Embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: question %s has %d dimensions, expected %d",
				domain.ErrInvalidInput, candidates[i].ID, len(candidates[i].Embedding), len(embedding))
		}
		sim := similarity.Cosine(embedding, candidates[i].Embedding)
		if sim > maxSim {
			best = i
			maxSim = sim
		}
	}

	if best < 0 {
		logger.Debug("No candidate resembles %q, recording as new", truncate(content, 60))
		return &domain.Resolution{}, nil
	}

	nearest := candidates[best]
	res := &domain.Resolution{Nearest: &nearest, Similarity: maxSim}
	if maxSim < threshold {
		logger.Debug("Best match %s at %.4f is below %.2f, recording %q as new",
			nearest.ID, maxSim, threshold, truncate(content, 60))
		return res, nil
	}

	target, err := t.increment(ctx, nearest)
	if err != nil {
		return nil, err
	}
	logger.Debug("Merged %q into %s at %.4f (occurrences now %d)",
		truncate(content, 60), target.ID, maxSim, target.OccurrenceCount)

	res.Merged = true
	res.Target = target
	return res, nil
}

// increment raises the occurrence count of q, re-reading it after each conflict.
func (t *RecurrenceTracker) increment(ctx context.Context, q domain.Question) (*domain.Question, error) {
	revision := q.Revision
	for attempt := 1; attempt <= maxIncrementAttempts; attempt++ {
		updated, err := t.questionStore.IncrementOccurrence(ctx, q.ID, revision)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: increment %s: %w", domain.ErrPersistence, q.ID, err)
		}

		logger.Debug("Revision conflict on %s (attempt %d), re-reading", q.ID, attempt)
		current, err := t.questionStore.Get(ctx, q.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: reload %s: %w", domain.ErrPersistence, q.ID, err)
		}
		revision = current.Revision
	}
	return nil, fmt.Errorf("%w: increment %s: gave up after %d attempts",
		domain.ErrConflict, q.ID, maxIncrementAttempts)
}

// truncate shortens s to at most n runes for log output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
