package tui

import "errors"

// ErrMissingLeaderboardService is returned when the leaderboard service is not provided.
var ErrMissingLeaderboardService = errors.New("tui: leaderboard service is required")

// ErrMissingPaperService is returned when the paper service is not provided.
var ErrMissingPaperService = errors.New("tui: paper service is required")

// ErrInvalidPorts is returned when no ports are given.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
