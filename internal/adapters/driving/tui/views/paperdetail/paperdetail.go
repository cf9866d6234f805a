// Package paperdetail provides the single paper view for the TUI.
package paperdetail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/qplens/qplens/internal/adapters/driving/tui/messages"
	"github.com/qplens/qplens/internal/adapters/driving/tui/styles"
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driving"
)

// ErrNoPaperService indicates that no paper service was provided.
var ErrNoPaperService = errors.New("paper service not available")

// View shows the metadata and question counts of one paper.
type View struct {
	styles  *styles.Styles
	service driving.PaperService
	ctx     context.Context

	paperID string
	paper   *domain.Paper
	back    messages.ViewType
	width   int
	height  int
	err     error
	loading bool
}

// NewView creates a new paper detail view.
func NewView(s *styles.Styles, service driving.PaperService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		service: service,
		ctx:     context.Background(),
		back:    messages.ViewPapers,
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetPaper selects the paper to show and the view esc returns to.
func (v *View) SetPaper(id string, back messages.ViewType) {
	v.paperID = id
	v.paper = nil
	v.err = nil
	v.back = back
}

// Init loads the selected paper.
func (v *View) Init() tea.Cmd {
	v.loading = true
	id := v.paperID
	return func() tea.Msg {
		if v.service == nil {
			return messages.PaperLoaded{Err: ErrNoPaperService}
		}
		paper, err := v.service.Get(v.ctx, id)
		return messages.PaperLoaded{Paper: paper, Err: err}
	}
}

// Update handles messages for the paper detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			back := v.back
			return v, func() tea.Msg { return messages.ViewChanged{View: back} }
		}

	case messages.PaperLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.paper = msg.Paper
		}
	}
	return v, nil
}

// View renders the paper.
func (v *View) View() string {
	var b strings.Builder

	switch {
	case v.loading:
		b.WriteString(v.styles.Title.Render("Paper"))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render("Loading paper..."))
	case errors.Is(v.err, domain.ErrNotFound):
		b.WriteString(v.styles.Title.Render("Paper"))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Paper %s no longer exists.", v.paperID)))
	case v.err != nil:
		b.WriteString(v.styles.Title.Render("Paper"))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.paper != nil:
		v.renderPaper(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[esc] back  [q] quit"))
	return b.String()
}

func (v *View) renderPaper(b *strings.Builder) {
	p := v.paper

	b.WriteString(v.styles.Title.Render(p.Title))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%s  %s %d", p.Course, p.Term, p.Year)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(v.styles.Normal.Render(value))
		b.WriteString("\n")
	}

	field("ID", p.ID)
	field("Uploaded by", p.UploadedBy)
	field("File", p.FileURI)
	if !p.CreatedAt.IsZero() {
		field("Uploaded", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if p.WordCount > 0 {
		field("Length", fmt.Sprintf("%d words, ~%d pages", p.WordCount, p.PageCount))
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Questions"))
	b.WriteString("\n")
	field("Extracted", fmt.Sprintf("%d", p.TotalCount))
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-14s", "New")))
	b.WriteString(v.styles.Success.Render(fmt.Sprintf("%d", p.NewCount)))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-14s", "Seen before")))
	b.WriteString(v.styles.Occurrences(p.ReusedCount + 1).Render(fmt.Sprintf("%d", p.ReusedCount)))
	if skipped := p.TotalCount - p.NewCount - p.ReusedCount; skipped > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-14s", "Skipped")))
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("%d", skipped)))
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Paper returns the loaded paper.
func (v *View) Paper() *domain.Paper {
	return v.paper
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
