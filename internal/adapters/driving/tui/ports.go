// Package tui provides an interactive terminal user interface for qplens.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/qplens/qplens/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Leaderboard ranks recurring questions.
	Leaderboard driving.LeaderboardService

	// Papers lists and loads uploaded papers.
	Papers driving.PaperService

	// Retrieval queries study sessions. Optional; without it the
	// session query view is hidden.
	Retrieval driving.RetrievalService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	leaderboard driving.LeaderboardService,
	papers driving.PaperService,
	retrieval driving.RetrievalService,
) *Ports {
	return &Ports{
		Leaderboard: leaderboard,
		Papers:      papers,
		Retrieval:   retrieval,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Leaderboard == nil {
		return ErrMissingLeaderboardService
	}
	if p.Papers == nil {
		return ErrMissingPaperService
	}
	return nil
}
