// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/qplens/qplens/internal/adapters/driving/tui/keymap"
	"github.com/qplens/qplens/internal/adapters/driving/tui/styles"
)

// State represents what the bar reports on its left side.
type State string

const (
	StateReady    State = "ready"
	StateQuerying State = "querying"
	StateResults  State = "results"
	StateError    State = "error"
)

// Bar displays the session, the query state and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	session     string
	resultCount int
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	var prefix string
	if b.session != "" {
		prefix = b.styles.Subtitle.Render("["+b.session+"]") + " "
	}

	switch b.state {
	case StateQuerying:
		return prefix + b.styles.Muted.Render("Querying...")
	case StateError:
		if b.message != "" {
			return prefix + b.styles.Error.Render("Error: "+b.message)
		}
		return prefix + b.styles.Error.Render("Error")
	case StateResults:
		return prefix + b.styles.Normal.Render(fmt.Sprintf("%d passages", b.resultCount))
	default:
		if b.message != "" {
			return prefix + b.styles.Muted.Render(b.message)
		}
		return prefix + b.styles.Muted.Render("Ready")
	}
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateResults && b.resultCount > 0 {
		bindings = b.keymap.ResultsHelp()
	} else {
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the message shown in the ready and error states.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetSession sets the session shown as a prefix.
func (b *Bar) SetSession(session string) {
	b.session = session
}

// SetResultCount sets the passage count.
func (b *Bar) SetResultCount(count int) {
	b.resultCount = count
}

// ResultCount returns the passage count.
func (b *Bar) ResultCount() int {
	return b.resultCount
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Clear resets the state, message and count. The session is kept.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.resultCount = 0
}
