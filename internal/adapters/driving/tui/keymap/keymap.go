// Package keymap holds the TUI key bindings shared by every view.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap is the set of bindings views match key presses against.
type KeyMap struct {
	Up, Down key.Binding
	Select   key.Binding
	Back     key.Binding
	Help     key.Binding
	Quit     key.Binding

	// List views.
	Reload key.Binding

	// Query view. Submit shares enter with Select; the view decides
	// by whether the input has focus.
	Submit   key.Binding
	NewQuery key.Binding
	Session  key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns vim-style bindings with arrow key alternatives.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),
		Select:   bind("enter", "open", "enter"),
		Back:     bind("esc", "back", "esc"),
		Help:     bind("?", "help", "?"),
		Quit:     bind("q", "quit", "q", "ctrl+c"),
		Reload:   bind("r", "reload", "r"),
		Submit:   bind("enter", "query", "enter"),
		NewQuery: bind("n", "new query", "n"),
		Session:  bind("s", "session", "s"),
	}
}

// Step moves a cursor over n items for Up and Down presses, clamping at
// both ends. Other keys return cursor unchanged.
func (k *KeyMap) Step(msg tea.KeyMsg, cursor, n int) int {
	switch {
	case key.Matches(msg, k.Up) && cursor > 0:
		return cursor - 1
	case key.Matches(msg, k.Down) && cursor < n-1:
		return cursor + 1
	}
	return cursor
}

// ShortHelp is shown in the status bar before any results exist.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ResultsHelp is shown in the status bar while passages are listed.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Session, k.Up, k.Back}
}

// FullHelp groups every binding by where it applies.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Submit, k.NewQuery, k.Session, k.Reload},
		{k.Back, k.Help, k.Quit},
	}
}
