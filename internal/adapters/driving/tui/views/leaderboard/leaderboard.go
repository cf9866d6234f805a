// Package leaderboard provides the recurring-questions view for the TUI.
package leaderboard

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

// ErrNoLeaderboardService indicates that no leaderboard service was provided.
var ErrNoLeaderboardService = errors.New("leaderboard service not available")

// View lists questions ranked by occurrence count.
type View struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.LeaderboardService
	ctx     context.Context
	limit   int

	entries  []domain.LeaderboardEntry
	selected int
	offset   int
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a new leaderboard view showing up to limit questions.
// A limit of zero or less uses domain.DefaultLeaderboardLimit.
func NewView(s *styles.Styles, service driving.LeaderboardService, limit int) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if limit <= 0 {
		limit = domain.DefaultLeaderboardLimit
	}
	return &View{
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		service: service,
		ctx:     context.Background(),
		limit:   limit,
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the leaderboard.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.service == nil {
			return messages.LeaderboardLoaded{Err: ErrNoLeaderboardService}
		}
		entries, err := v.service.Leaderboard(v.ctx, v.limit)
		return messages.LeaderboardLoaded{Entries: entries, Err: err}
	}
}

// Update handles messages for the leaderboard view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.LeaderboardLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.entries = msg.Entries
		v.selected = 0
		v.offset = 0
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Select):
		if e := v.SelectedEntry(); e != nil && e.Paper.ID != "" {
			id := e.Paper.ID
			return v, func() tea.Msg { return messages.PaperSelected{PaperID: id} }
		}
	case key.Matches(msg, v.keys.Reload):
		return v, v.Init()
	default:
		v.selected = v.keys.Step(msg, v.selected, len(v.entries))
	}
	v.scroll()
	return v, nil
}

// scroll keeps the selection inside the visible window.
func (v *View) scroll() {
	rows := v.rows()
	if v.selected < v.offset {
		v.offset = v.selected
	}
	if v.selected >= v.offset+rows {
		v.offset = v.selected - rows + 1
	}
}

// rows is how many entries fit; each takes two lines.
func (v *View) rows() int {
	n := (v.height - 6) / 2
	if n < 1 {
		n = 1
	}
	return n
}

// View renders the leaderboard.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Leaderboard"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("top %d recurring questions", v.limit)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading leaderboard..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.entries) == 0:
		b.WriteString(v.styles.Muted.Render("No questions yet. Upload a paper with `qplens paper upload`."))
	default:
		end := v.offset + v.rows()
		if end > len(v.entries) {
			end = len(v.entries)
		}
		for i := v.offset; i < end; i++ {
			b.WriteString(v.renderEntry(i, &v.entries[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] paper  [r] reload  [esc] back  [q] quit"))
	return b.String()
}

func (v *View) renderEntry(index int, e *domain.LeaderboardEntry) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	rank := fmt.Sprintf("%s%3d.", indicator, index+1)
	count := v.styles.Occurrences(e.Question.OccurrenceCount).Render(fmt.Sprintf("x%-3d", e.Question.OccurrenceCount))

	maxLen := v.width - 16
	if maxLen < 20 {
		maxLen = 20
	}
	content := truncate(strings.Join(strings.Fields(e.Question.Content), " "), maxLen)

	var line string
	if index == v.selected {
		line = v.styles.Selected.Render(rank) + " " + count + " " + v.styles.Selected.Render(content)
	} else {
		line = v.styles.Normal.Render(rank) + " " + count + " " + v.styles.Normal.Render(content)
	}

	return line + "\n" + v.styles.Muted.Render("           "+PaperLabel(e.Paper))
}

// PaperLabel formats a paper summary as "Title (COURSE TERM YEAR)".
func PaperLabel(p domain.PaperSummary) string {
	if p.Title == "" {
		return p.ID
	}
	return fmt.Sprintf("%s (%s %s %d)", p.Title, p.Course, p.Term, p.Year)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.scroll()
}

// Entries returns the loaded entries.
func (v *View) Entries() []domain.LeaderboardEntry {
	return v.entries
}

// SelectedEntry returns the highlighted entry, or nil when the list is empty.
func (v *View) SelectedEntry() *domain.LeaderboardEntry {
	if v.selected < 0 || v.selected >= len(v.entries) {
		return nil
	}
	return &v.entries[v.selected]
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
