// Package mcp provides an MCP (Model Context Protocol) server adapter for qplens.
// It lets AI assistants answer questions from indexed study sessions, upload
// past papers and read the recurring-question leaderboard.
package mcp

import "errors"

var (
	// ErrMissingLeaderboardService is returned when the leaderboard service is not provided.
	ErrMissingLeaderboardService = errors.New("mcp: leaderboard service is required")

	// ErrMissingPaperService is returned when the paper service is not provided.
	ErrMissingPaperService = errors.New("mcp: paper service is required")

	// errServiceUnavailable is reported by tools whose optional port is nil.
	errServiceUnavailable = errors.New("service not available on this server")
)
