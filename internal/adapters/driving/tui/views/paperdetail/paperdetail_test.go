package paperdetail

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qplens/qplens/internal/adapters/driving/tui/messages"
	"github.com/qplens/qplens/internal/core/domain"
)

type mockPaperService struct {
	papers map[string]*domain.Paper
	err    error
	lastID string
}

func (m *mockPaperService) ProcessUpload(context.Context, string, domain.PaperMeta) (*domain.UploadResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPaperService) Get(_ context.Context, id string) (*domain.Paper, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.papers[id]
	if !ok {
		return nil, fmt.Errorf("%w: paper %s", domain.ErrNotFound, id)
	}
	return p, nil
}

func (m *mockPaperService) List(context.Context) ([]domain.Paper, error) {
	return nil, nil
}

func samplePaper() *domain.Paper {
	return &domain.Paper{
		ID:          "p1",
		Title:       "Mechanics Final",
		Course:      "PHY201",
		Year:        2023,
		Term:        domain.TermFinal,
		UploadedBy:  "sam",
		FileURI:     "/papers/mech.pdf",
		TotalCount:  10,
		NewCount:    6,
		ReusedCount: 3,
		WordCount:   1200,
		PageCount:   3,
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
	}
}

func open(t *testing.T, svc *mockPaperService, id string) *View {
	t.Helper()
	v := NewView(nil, svc)
	v.SetPaper(id, messages.ViewLeaderboard)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func TestView_LoadsPaper(t *testing.T) {
	svc := &mockPaperService{papers: map[string]*domain.Paper{"p1": samplePaper()}}

	v := open(t, svc, "p1")

	assert.Equal(t, "p1", svc.lastID)
	require.NotNil(t, v.Paper())
	assert.NoError(t, v.Err())
}

func TestView_View(t *testing.T) {
	v := open(t, &mockPaperService{papers: map[string]*domain.Paper{"p1": samplePaper()}}, "p1")

	out := v.View()

	assert.Contains(t, out, "Mechanics Final")
	assert.Contains(t, out, "PHY201  FINAL 2023")
	assert.Contains(t, out, "sam")
	assert.Contains(t, out, "/papers/mech.pdf")
	assert.Contains(t, out, "1200 words, ~3 pages")
	assert.Contains(t, out, "Extracted")
	assert.Contains(t, out, "Seen before")
	assert.Contains(t, out, "Skipped")
}

func TestView_View_Loading(t *testing.T) {
	v := NewView(nil, &mockPaperService{})
	v.SetPaper("p1", messages.ViewPapers)
	v.Init()

	assert.Contains(t, v.View(), "Loading paper...")
}

func TestView_NotFound(t *testing.T) {
	v := open(t, &mockPaperService{}, "gone")

	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
	assert.Contains(t, v.View(), "Paper gone no longer exists.")
}

func TestView_Error(t *testing.T) {
	v := open(t, &mockPaperService{err: errors.New("db closed")}, "p1")

	assert.Contains(t, v.View(), "Error: db closed")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)
	v.SetPaper("p1", messages.ViewPapers)
	v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), ErrNoPaperService)
}

func TestView_EscReturnsToOrigin(t *testing.T) {
	v := open(t, &mockPaperService{papers: map[string]*domain.Paper{"p1": samplePaper()}}, "p1")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewLeaderboard}, cmd())
}

func TestView_SetPaperClearsState(t *testing.T) {
	v := open(t, &mockPaperService{}, "gone")
	require.Error(t, v.Err())

	v.SetPaper("p2", messages.ViewPapers)

	assert.NoError(t, v.Err())
	assert.Nil(t, v.Paper())
}
