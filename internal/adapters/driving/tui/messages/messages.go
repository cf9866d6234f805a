// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/qplens/qplens/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewLeaderboard ranks questions by how often they recur.
	ViewLeaderboard
	// ViewPapers lists uploaded papers.
	ViewPapers
	// ViewPaperDetail shows one paper.
	ViewPaperDetail
	// ViewQuery searches the passages of a study session.
	ViewQuery
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewLeaderboard:
		return "leaderboard"
	case ViewPapers:
		return "papers"
	case ViewPaperDetail:
		return "paper_detail"
	case ViewQuery:
		return "query"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// LeaderboardLoaded carries the ranked questions.
type LeaderboardLoaded struct {
	Entries []domain.LeaderboardEntry
	Err     error
}

// PapersLoaded carries the uploaded papers, newest first.
type PapersLoaded struct {
	Papers []domain.Paper
	Err    error
}

// PaperSelected signals a paper was chosen for the detail view.
type PaperSelected struct {
	PaperID string
}

// PaperLoaded carries a single paper.
type PaperLoaded struct {
	Paper *domain.Paper
	Err   error
}

// QueryCompleted carries the passages retrieved for a session query.
type QueryCompleted struct {
	SessionID string
	Query     string
	Results   []domain.ScoredChunk
	Err       error
}
