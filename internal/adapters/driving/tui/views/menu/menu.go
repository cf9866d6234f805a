// Package menu is the TUI start screen.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qplens/qplens/internal/adapters/driving/tui/keymap"
	"github.com/qplens/qplens/internal/adapters/driving/tui/messages"
	"github.com/qplens/qplens/internal/adapters/driving/tui/styles"
)

// hintWidth is the narrowest terminal that still shows item hints.
const hintWidth = 60

// Item is one menu entry. Selecting it opens View, or exits when Quit is set.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View lets the user pick a screen.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	items  []Item
	cursor int
	width  int
}

// NewView builds the menu. The session query entry needs a retrieval
// service, so it is only listed when withQuery is set.
func NewView(s *styles.Styles, withQuery bool) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	items := []Item{
		{Label: "Leaderboard", Hint: "questions that keep coming back", View: messages.ViewLeaderboard},
		{Label: "Papers", Hint: "uploaded question papers", View: messages.ViewPapers},
	}
	if withQuery {
		items = append(items, Item{Label: "Query session", Hint: "find passages in your notes", View: messages.ViewQuery})
	}
	items = append(items, Item{Label: "Help", View: messages.ViewHelp}, Item{Label: "Quit", Quit: true})

	return &View{styles: s, keys: keymap.DefaultKeyMap(), items: items}
}

func (v *View) Init() tea.Cmd { return nil }

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.press(msg)
	}
	return v, nil
}

func (v *View) press(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit
	case key.Matches(msg, v.keys.Select):
		item := v.items[v.cursor]
		if item.Quit {
			return tea.Quit
		}
		return func() tea.Msg { return messages.ViewChanged{View: item.View} }
	}
	v.cursor = v.keys.Step(msg, v.cursor, len(v.items))
	return nil
}

func (v *View) View() string {
	if v.width == 0 {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("qplens") + "\n\n")
	b.WriteString(v.styles.Muted.Render("Past papers and study sessions") + "\n\n")

	for i, item := range v.items {
		line := "  " + v.styles.Normal.Render(item.Label)
		if i == v.cursor {
			line = "> " + v.styles.Subtitle.Render(item.Label)
		}
		if item.Hint != "" && v.width >= hintWidth {
			line += "  " + v.styles.Muted.Render(item.Hint)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))
	return b.String()
}

// SetDimensions records the terminal width; the menu does not scroll.
func (v *View) SetDimensions(width, _ int) {
	v.width = width
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.cursor
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
