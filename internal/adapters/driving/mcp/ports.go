package mcp

import (
	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Leaderboard ranks recurring questions.
	Leaderboard driving.LeaderboardService

	// Papers processes and lists question papers.
	Papers driving.PaperService

	// Retrieval indexes session documents and finds passages.
	Retrieval driving.RetrievalService

	// Answer answers question batches from a session.
	Answer driving.AnswerService

	// Normalisers reads local files for process_paper. Optional.
	Normalisers driven.NormaliserRegistry
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Leaderboard == nil {
		return ErrMissingLeaderboardService
	}
	if p.Papers == nil {
		return ErrMissingPaperService
	}
	// Retrieval and Answer are optional: their tools report the missing service.
	return nil
}
