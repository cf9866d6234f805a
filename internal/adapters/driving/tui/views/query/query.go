// Package query provides the session passage search view for the TUI.
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/qplens/qplens/internal/adapters/driving/tui/components/input"
	"github.com/qplens/qplens/internal/adapters/driving/tui/components/list"
	"github.com/qplens/qplens/internal/adapters/driving/tui/components/status"
	"github.com/qplens/qplens/internal/adapters/driving/tui/keymap"
	"github.com/qplens/qplens/internal/adapters/driving/tui/messages"
	"github.com/qplens/qplens/internal/adapters/driving/tui/styles"
	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/core/ports/driving"
)

// ErrNoRetrievalService indicates that no retrieval service was provided.
var ErrNoRetrievalService = errors.New("retrieval service not available")

const (
	sessionLabel       = "Session"
	sessionPlaceholder = "session id used with `qplens session index`"
	queryLabel         = "Query"
	queryPlaceholder   = "what are you looking for?"
)

// View asks for a session, then runs text queries against its passages.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	list      *list.PassageList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	ctx       context.Context
	topK      int

	session    string
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new query view returning up to topK passages per query.
// A topK of zero or less uses domain.DefaultTopK.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService, topK int) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewField(s, sessionLabel, sessionPlaceholder),
		list:       list.NewPassageList(s),
		statusbar:  status.NewBar(s, km),
		retrieval:  retrieval,
		ctx:        context.Background(),
		topK:       topK,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the query view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.QueryCompleted:
		v.handleQueryCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if !key.Matches(msg, v.keymap.Submit) {
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return v, cmd
		}
		return v.submit()
	}

	switch {
	case key.Matches(msg, v.keymap.NewQuery):
		v.focusQuery("")
		return v, nil
	case key.Matches(msg, v.keymap.Session):
		v.chooseSession()
		return v, nil
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// submit sets the session or runs the typed query.
func (v *View) submit() (*View, tea.Cmd) {
	value := strings.TrimSpace(v.input.Value())
	if value == "" {
		return v, nil
	}

	if v.session == "" {
		v.session = value
		v.statusbar.SetSession(value)
		v.statusbar.Clear()
		v.focusQuery("")
		return v, nil
	}

	v.err = nil
	v.statusbar.SetState(status.StateQuerying)
	v.focusInput = false
	v.input.Blur()
	return v, v.runQuery(v.session, value)
}

func (v *View) runQuery(session, text string) tea.Cmd {
	k := v.topK
	return func() tea.Msg {
		if v.retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		results, err := v.retrieval.QueryText(v.ctx, session, text, k)
		return messages.QueryCompleted{SessionID: session, Query: text, Results: results, Err: err}
	}
}

func (v *View) handleQueryCompleted(msg messages.QueryCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetPassages(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Results))
	if len(msg.Results) == 0 {
		// Unknown sessions and empty sessions both come back empty.
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("No passages in session " + msg.SessionID)
	}
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.focusInput = true
	v.input.Focus()
}

func (v *View) focusQuery(value string) {
	v.input.SetLabel(queryLabel, queryPlaceholder)
	v.input.SetValue(value)
	v.input.SetWidth(v.width)
	v.input.Focus()
	v.focusInput = true
}

func (v *View) chooseSession() {
	v.session = ""
	v.statusbar.SetSession("")
	v.statusbar.Clear()
	v.list.SetPassages(nil)
	v.input.SetLabel(sessionLabel, sessionPlaceholder)
	v.input.SetValue("")
	v.input.SetWidth(v.width)
	v.input.Focus()
	v.focusInput = true
}

// View renders the query view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("Query session"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.session != "" {
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-8)
	v.statusbar.SetWidth(width)
}

// Reset returns to session entry, keeping a chosen session.
func (v *View) Reset() {
	v.err = nil
	v.list.SetPassages(nil)
	v.statusbar.Clear()
	if v.session == "" {
		v.chooseSession()
		return
	}
	v.focusQuery("")
}

// Session returns the chosen session id.
func (v *View) Session() string {
	return v.session
}

// SetSession chooses a session without typing it.
func (v *View) SetSession(session string) {
	if session == "" {
		v.chooseSession()
		return
	}
	v.session = session
	v.statusbar.SetSession(session)
	v.focusQuery("")
}

// Input returns the text currently typed.
func (v *View) Input() string {
	return v.input.Value()
}

// InputFocused returns whether keys go to the input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Results returns the passages of the last query.
func (v *View) Results() []domain.ScoredChunk {
	return v.list.Passages()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
