package papers

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

type mockPaperService struct {
	papers []domain.Paper
	err    error
}

func (m *mockPaperService) ProcessUpload(context.Context, string, domain.PaperMeta) (*domain.UploadResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPaperService) Get(context.Context, string) (*domain.Paper, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPaperService) List(context.Context) ([]domain.Paper, error) {
	return m.papers, m.err
}

func samplePapers() []domain.Paper {
	return []domain.Paper{
		{ID: "p2", Title: "Thermodynamics Midterm", Course: "PHY202", Year: 2024, Term: domain.TermMidterm, NewCount: 3, ReusedCount: 2},
		{ID: "p1", Title: "Mechanics Final", Course: "PHY201", Year: 2023, Term: domain.TermFinal, NewCount: 8},
	}
}

func loaded(t *testing.T, svc *mockPaperService) *View {
	t.Helper()
	v := NewView(nil, svc)
	v.Update(v.Init()())
	return v
}

func TestView_Init_LoadsPapers(t *testing.T) {
	v := loaded(t, &mockPaperService{papers: samplePapers()})

	assert.Len(t, v.Papers(), 2)
	assert.Equal(t, "p2", v.SelectedPaper().ID)
}

func TestView_Init_NoService(t *testing.T) {
	v := NewView(nil, nil)
	v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), ErrNoPaperService)
}

func TestView_View(t *testing.T) {
	v := loaded(t, &mockPaperService{papers: samplePapers()})
	v.SetDimensions(120, 30)

	out := v.View()

	assert.Contains(t, out, "Papers")
	assert.Contains(t, out, "[PHY202]")
	assert.Contains(t, out, "Thermodynamics Midterm")
	assert.Contains(t, out, "MIDTERM 2024")
	assert.Contains(t, out, "3 new, 2 reused")
	assert.Contains(t, out, "Mechanics Final")
}

func TestView_View_States(t *testing.T) {
	v := NewView(nil, &mockPaperService{})
	v.Init()
	assert.Contains(t, v.View(), "Loading papers...")

	v = loaded(t, &mockPaperService{})
	assert.Contains(t, v.View(), "No papers uploaded.")

	v = loaded(t, &mockPaperService{err: errors.New("disk full")})
	assert.Contains(t, v.View(), "Error: disk full")
}

func TestView_NavigateAndSelect(t *testing.T) {
	v := loaded(t, &mockPaperService{papers: samplePapers()})

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "p1", v.SelectedPaper().ID)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.PaperSelected{PaperID: "p1"}, cmd())

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "p2", v.SelectedPaper().ID)
}

func TestView_ReloadKeepsValidSelection(t *testing.T) {
	svc := &mockPaperService{papers: samplePapers()}
	v := loaded(t, svc)
	v.Update(tea.KeyMsg{Type: tea.KeyDown})

	svc.papers = samplePapers()[:1]
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, "p2", v.SelectedPaper().ID)
}
