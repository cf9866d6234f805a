package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qplens/qplens/internal/adapters/driving/tui/keymap"
	"github.com/qplens/qplens/internal/adapters/driving/tui/messages"
	"github.com/qplens/qplens/internal/adapters/driving/tui/styles"
	"github.com/qplens/qplens/internal/adapters/driving/tui/views/leaderboard"
	"github.com/qplens/qplens/internal/adapters/driving/tui/views/menu"
	"github.com/qplens/qplens/internal/adapters/driving/tui/views/paperdetail"
	"github.com/qplens/qplens/internal/adapters/driving/tui/views/papers"
	"github.com/qplens/qplens/internal/adapters/driving/tui/views/query"
)

// App routes messages between the qplens screens. Loaded data and errors
// arrive as messages from the views' commands.
type App struct {
	ports *Ports
	ctx   context.Context
	theme *styles.Styles
	keys  *keymap.KeyMap

	menuView        *menu.View
	leaderboardView *leaderboard.View
	papersView      *papers.View
	paperDetailView *paperdetail.View
	queryView       *query.View // nil without a retrieval service

	screen  messages.ViewType
	lastErr error

	width, height int
	ready         bool
}

var _ tea.Model = (*App)(nil)

// NewApp builds every screen over ports. The query screen exists only when
// ports carries a retrieval service.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	theme := styles.DefaultStyles()
	keys := keymap.DefaultKeyMap()
	app := &App{
		ports:           ports,
		ctx:             context.Background(),
		theme:           theme,
		keys:            keys,
		menuView:        menu.NewView(theme, ports.Retrieval != nil),
		leaderboardView: leaderboard.NewView(theme, ports.Leaderboard, 0),
		papersView:      papers.NewView(theme, ports.Papers),
		paperDetailView: paperdetail.NewView(theme, ports.Papers),
		screen:          messages.ViewMenu,
	}
	if ports.Retrieval != nil {
		app.queryView = query.NewView(theme, keys, ports.Retrieval, 0)
	}
	return app, nil
}

// WithContext hands ctx to every screen that calls a service.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.leaderboardView.WithContext(ctx)
	a.papersView.WithContext(ctx)
	a.paperDetailView.WithContext(ctx)
	if a.queryView != nil {
		a.queryView.WithContext(ctx)
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.SetWindowTitle("qplens"))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		cmd = a.onKey(msg)
	case messages.ViewChanged:
		cmd = a.switchTo(msg.View)
	case messages.PaperSelected:
		cmd = a.openPaper(msg.PaperID)
	case messages.LeaderboardLoaded:
		a.lastErr = msg.Err
		a.leaderboardView, cmd = a.leaderboardView.Update(msg)
	case messages.PapersLoaded:
		a.lastErr = msg.Err
		a.papersView, cmd = a.papersView.Update(msg)
	case messages.PaperLoaded:
		a.lastErr = msg.Err
		a.paperDetailView, cmd = a.paperDetailView.Update(msg)
	case messages.QueryCompleted:
		a.lastErr = msg.Err
		cmd = a.toQuery(msg, true)
	case messages.ErrorOccurred:
		a.lastErr = msg.Err
		cmd = a.toQuery(msg, false)
	case messages.Quit:
		cmd = tea.Quit
	default:
		// Cursor blinks and other ticks.
		cmd = a.toQuery(msg, false)
	}
	return a, cmd
}

// toQuery forwards msg to the query screen. Unless always is set it is
// dropped while another screen is showing.
func (a *App) toQuery(msg tea.Msg, always bool) tea.Cmd {
	if a.queryView == nil || (!always && a.screen != messages.ViewQuery) {
		return nil
	}
	var cmd tea.Cmd
	a.queryView, cmd = a.queryView.Update(msg)
	return cmd
}

// openPaper shows a paper and remembers which list to return to.
func (a *App) openPaper(id string) tea.Cmd {
	back := messages.ViewPapers
	if a.screen == messages.ViewLeaderboard {
		back = messages.ViewLeaderboard
	}
	a.paperDetailView.SetPaper(id, back)
	a.screen = messages.ViewPaperDetail
	return a.paperDetailView.Init()
}

func (a *App) onKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	// While a session is open the query screen sees every key, q included.
	if a.screen == messages.ViewQuery && a.queryView != nil {
		return a.toQuery(msg, true)
	}

	switch {
	case a.screen == messages.ViewMenu:
		var cmd tea.Cmd
		a.menuView, cmd = a.menuView.Update(msg)
		return cmd
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	}

	var cmd tea.Cmd
	switch a.screen {
	case messages.ViewLeaderboard, messages.ViewPapers, messages.ViewHelp:
		if key.Matches(msg, a.keys.Back) {
			a.screen = messages.ViewMenu
			return nil
		}
		if a.screen == messages.ViewLeaderboard {
			a.leaderboardView, cmd = a.leaderboardView.Update(msg)
		} else if a.screen == messages.ViewPapers {
			a.papersView, cmd = a.papersView.Update(msg)
		}
	case messages.ViewPaperDetail:
		a.paperDetailView, cmd = a.paperDetailView.Update(msg)
	default:
		// Query selected without a retrieval service.
		a.screen = messages.ViewMenu
	}
	return cmd
}

// switchTo makes view current and starts its loading.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewLeaderboard:
		a.screen = view
		return a.leaderboardView.Init()
	case messages.ViewPapers:
		a.screen = view
		return a.papersView.Init()
	case messages.ViewQuery:
		if a.queryView == nil {
			return nil
		}
		a.screen = view
		a.queryView.Reset()
		return a.queryView.Init()
	case messages.ViewMenu, messages.ViewHelp, messages.ViewPaperDetail:
		a.screen = view
	}
	return nil
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.screen {
	case messages.ViewLeaderboard:
		return a.leaderboardView.View()
	case messages.ViewPapers:
		return a.papersView.View()
	case messages.ViewPaperDetail:
		return a.paperDetailView.View()
	case messages.ViewQuery:
		if a.queryView != nil {
			return a.queryView.View()
		}
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	return a.theme.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Lists (leaderboard, papers):
  j/k, ↑/↓    Move
  enter       Open paper
  r           Reload
  q           Quit

Query session:
  enter       Set session / run query
  j/k, ↑/↓    Move between passages
  enter       Show passage in full
  n           New query
  s           Switch session
  esc         Back to menu

` + a.theme.Help.Render("[esc] back to menu")
}

// Run blocks until the user quits or the context ends.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// CurrentView reports which screen is showing.
func (a *App) CurrentView() messages.ViewType { return a.screen }

// Err is the error carried by the most recent load or query result.
func (a *App) Err() error { return a.lastErr }

// Ready is false until the first window size arrives.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes every screen.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height, a.ready = width, height, true
	a.menuView.SetDimensions(width, height)
	a.leaderboardView.SetDimensions(width, height)
	a.papersView.SetDimensions(width, height)
	a.paperDetailView.SetDimensions(width, height)
	if a.queryView != nil {
		a.queryView.SetDimensions(width, height)
	}
}
