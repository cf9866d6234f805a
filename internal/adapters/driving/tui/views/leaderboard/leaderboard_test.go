package leaderboard

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qplens/qplens/internal/adapters/driving/tui/messages"
	"github.com/qplens/qplens/internal/core/domain"
)

type mockLeaderboardService struct {
	entries   []domain.LeaderboardEntry
	err       error
	lastLimit int
}

func (m *mockLeaderboardService) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	m.lastLimit = limit
	return m.entries, m.err
}

func sampleEntries() []domain.LeaderboardEntry {
	return []domain.LeaderboardEntry{
		{
			Question: domain.Question{ID: "q1", Content: "State Newton's first law.", OccurrenceCount: 4},
			Paper:    domain.PaperSummary{ID: "p1", Title: "Physics Final", Course: "PHY201", Year: 2023, Term: domain.TermFall},
		},
		{
			Question: domain.Question{ID: "q2", Content: "Define work done by a force.", OccurrenceCount: 2},
			Paper:    domain.PaperSummary{ID: "p2"},
		},
	}
}

func loaded(t *testing.T, svc *mockLeaderboardService) *View {
	t.Helper()
	v := NewView(nil, svc, 0)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func TestNewView_DefaultLimit(t *testing.T) {
	v := NewView(nil, nil, 0)

	assert.Equal(t, domain.DefaultLeaderboardLimit, v.limit)
	assert.Equal(t, 10, NewView(nil, nil, 10).limit)
}

func TestView_Init_LoadsEntries(t *testing.T) {
	svc := &mockLeaderboardService{entries: sampleEntries()}

	v := loaded(t, svc)

	assert.Equal(t, domain.DefaultLeaderboardLimit, svc.lastLimit)
	assert.Len(t, v.Entries(), 2)
	assert.NoError(t, v.Err())
}

func TestView_Init_NoService(t *testing.T) {
	v := NewView(nil, nil, 0)

	msg := v.Init()()
	v.Update(msg)

	assert.ErrorIs(t, v.Err(), ErrNoLeaderboardService)
	assert.Contains(t, v.View(), "leaderboard service not available")
}

func TestView_LoadError(t *testing.T) {
	v := loaded(t, &mockLeaderboardService{err: errors.New("db locked")})

	assert.Contains(t, v.View(), "Error: db locked")
}

func TestView_View_Loading(t *testing.T) {
	v := NewView(nil, &mockLeaderboardService{}, 0)
	v.Init()

	assert.Contains(t, v.View(), "Loading leaderboard...")
}

func TestView_View_Empty(t *testing.T) {
	v := loaded(t, &mockLeaderboardService{})

	assert.Contains(t, v.View(), "No questions yet")
}

func TestView_View_Entries(t *testing.T) {
	v := loaded(t, &mockLeaderboardService{entries: sampleEntries()})

	out := v.View()

	assert.Contains(t, out, "1.")
	assert.Contains(t, out, "x4")
	assert.Contains(t, out, "State Newton's first law.")
	assert.Contains(t, out, "Physics Final (PHY201 FALL 2023)")
	assert.Contains(t, out, "p2")
}

func TestView_Navigation(t *testing.T) {
	v := loaded(t, &mockLeaderboardService{entries: sampleEntries()})

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "q2", v.SelectedEntry().Question.ID)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, "q1", v.SelectedEntry().Question.ID)
}

func TestView_EnterSelectsPaper(t *testing.T) {
	v := loaded(t, &mockLeaderboardService{entries: sampleEntries()})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.PaperSelected{PaperID: "p1"}, cmd())
}

func TestView_EnterOnEmptyList(t *testing.T) {
	v := loaded(t, &mockLeaderboardService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_Reload(t *testing.T) {
	svc := &mockLeaderboardService{}
	v := loaded(t, svc)
	svc.entries = sampleEntries()

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Len(t, v.Entries(), 2)
}

func TestView_ScrollKeepsSelectionVisible(t *testing.T) {
	entries := make([]domain.LeaderboardEntry, 20)
	for i := range entries {
		entries[i] = domain.LeaderboardEntry{Question: domain.Question{ID: "q", Content: "question", OccurrenceCount: 1}}
	}
	entries[19].Question.Content = "the last question"
	v := loaded(t, &mockLeaderboardService{entries: entries})
	v.SetDimensions(80, 10) // two rows

	for range 19 {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	assert.Contains(t, v.View(), "the last question")
	assert.Contains(t, v.View(), " 20.")
}

func TestPaperLabel(t *testing.T) {
	assert.Equal(t, "p9", PaperLabel(domain.PaperSummary{ID: "p9"}))
	assert.Equal(t, "Maths (MTH101 SPRING 2022)",
		PaperLabel(domain.PaperSummary{ID: "p1", Title: "Maths", Course: "MTH101", Year: 2022, Term: domain.TermSpring}))
}
