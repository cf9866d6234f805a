// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/qplens/qplens/internal/adapters/driving/tui/styles"
	"github.com/qplens/qplens/internal/core/domain"
)

// PassageList displays retrieved passages in a navigable list.
type PassageList struct {
	passages []domain.ScoredChunk
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates a new passage list component.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the passage list.
func (l *PassageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "enter", " ":
			l.expanded = !l.expanded
		}
	}
	return l, nil
}

// View renders the passage list.
func (l *PassageList) View() string {
	if len(l.passages) == 0 {
		return l.styles.Muted.Render("No passages")
	}

	lines := make([]string, 0, len(l.passages)+3)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Passages (%d)", len(l.passages))), "")

	// Each passage takes three lines.
	visible := (l.height - 4) / 3
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.passages) {
		end = len(l.passages)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderPassage(i, &l.passages[i]))
	}

	if l.expanded {
		if p := l.SelectedPassage(); p != nil {
			lines = append(lines, "", l.styles.Border.Padding(0, 1).Width(l.textWidth()).Render(p.Chunk.Text))
		}
	}

	return strings.Join(lines, "\n")
}

func (l *PassageList) renderPassage(index int, p *domain.ScoredChunk) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := p.Chunk.SourceName
	if name == "" {
		name = "(unnamed)"
	}
	maxName := l.width - 24
	if maxName < 10 {
		maxName = 10
	}
	name = truncate(name, maxName)

	score := fmt.Sprintf("%.3f", p.Score)
	label := fmt.Sprintf("%s%-*s  #%d", indicator, maxName, name, p.Chunk.Position)

	var header string
	if index == l.selected {
		header = l.styles.Selected.Render(label + "  " + score)
	} else {
		header = l.styles.Normal.Render(label+"  ") + l.styles.Muted.Render(score)
	}

	preview := strings.Join(strings.Fields(p.Chunk.Text), " ")
	preview = truncate(preview, l.textWidth())

	return header + "\n" + l.styles.Muted.Render("    "+preview)
}

func (l *PassageList) textWidth() int {
	w := l.width - 6
	if w < 20 {
		w = 20
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetPassages replaces the list contents and resets the cursor.
func (l *PassageList) SetPassages(passages []domain.ScoredChunk) {
	l.passages = passages
	l.selected = 0
	l.expanded = false
}

// Passages returns the current passages.
func (l *PassageList) Passages() []domain.ScoredChunk {
	return l.passages
}

// Selected returns the index of the selected passage.
func (l *PassageList) Selected() int {
	return l.selected
}

// SelectedPassage returns the selected passage, or nil if the list is empty.
func (l *PassageList) SelectedPassage() *domain.ScoredChunk {
	if l.selected < 0 || l.selected >= len(l.passages) {
		return nil
	}
	return &l.passages[l.selected]
}

// Expanded reports whether the selected passage is shown in full.
func (l *PassageList) Expanded() bool {
	return l.expanded
}

// MoveUp moves selection up.
func (l *PassageList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *PassageList) MoveDown() {
	if l.selected < len(l.passages)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *PassageList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of passages.
func (l *PassageList) Count() int {
	return len(l.passages)
}
