// Package papers provides the uploaded papers view for the TUI.
package papers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qplens/qplens/internal/adapters/driving/tui/keymap"
	"github.com/qplens/qplens/internal/adapters/driving/tui/messages"
	"github.com/qplens/qplens/internal/adapters/driving/tui/styles"
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driving"
)

// ErrNoPaperService indicates that no paper service was provided.
var ErrNoPaperService = errors.New("paper service not available")

// View lists uploaded papers, newest first.
type View struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.PaperService
	ctx     context.Context

	papers   []domain.Paper
	selected int
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a new papers view.
func NewView(s *styles.Styles, service driving.PaperService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		service: service,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the papers.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		if v.service == nil {
			return messages.PapersLoaded{Err: ErrNoPaperService}
		}
		papers, err := v.service.List(v.ctx)
		return messages.PapersLoaded{Papers: papers, Err: err}
	}
}

// Update handles messages for the papers view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PapersLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.papers = msg.Papers
		if v.selected >= len(v.papers) {
			v.selected = 0
		}
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Select):
		if p := v.SelectedPaper(); p != nil {
			id := p.ID
			return v, func() tea.Msg { return messages.PaperSelected{PaperID: id} }
		}
	case key.Matches(msg, v.keys.Reload):
		return v, v.Init()
	default:
		v.selected = v.keys.Step(msg, v.selected, len(v.papers))
	}
	return v, nil
}

// View renders the papers view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Papers"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading papers..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.papers) == 0:
		b.WriteString(v.styles.Muted.Render("No papers uploaded."))
	default:
		for i := range v.papers {
			b.WriteString(v.renderPaper(i, &v.papers[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] details  [r] reload  [esc] back  [q] quit"))
	return b.String()
}

// renderPaper formats: > [COURSE] Title  TERM YEAR  new/reused.
func (v *View) renderPaper(index int, p *domain.Paper) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	course := fmt.Sprintf("[%s]", p.Course)
	title := p.Title
	if title == "" {
		title = p.ID
	}
	maxTitle := v.width - len(course) - 36
	if maxTitle < 10 {
		maxTitle = 10
	}
	if r := []rune(title); len(r) > maxTitle {
		title = string(r[:maxTitle-3]) + "..."
	}
	when := fmt.Sprintf("%s %d", p.Term, p.Year)
	counts := fmt.Sprintf("%d new, %d reused", p.NewCount, p.ReusedCount)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-10s %-*s  %-12s", indicator, course, maxTitle, title, when)) +
			"  " + v.styles.Muted.Render(counts)
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-10s ", course)) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  %-12s", maxTitle, title, when)) +
		"  " + v.styles.Muted.Render(counts)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Papers returns the loaded papers.
func (v *View) Papers() []domain.Paper {
	return v.papers
}

// SelectedPaper returns the highlighted paper, or nil when the list is empty.
func (v *View) SelectedPaper() *domain.Paper {
	if v.selected < 0 || v.selected >= len(v.papers) {
		return nil
	}
	return &v.papers[v.selected]
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
