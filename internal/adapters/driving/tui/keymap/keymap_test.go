package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDefaultKeyMap_Matches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		msg     tea.KeyMsg
		binding key.Binding
		want    bool
	}{
		{"q quits", runeKey('q'), km.Quit, true},
		{"ctrl+c quits", tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit, true},
		{"k is up", runeKey('k'), km.Up, true},
		{"arrow is up", tea.KeyMsg{Type: tea.KeyUp}, km.Up, true},
		{"j is down", runeKey('j'), km.Down, true},
		{"enter selects", tea.KeyMsg{Type: tea.KeyEnter}, km.Select, true},
		{"enter submits", tea.KeyMsg{Type: tea.KeyEnter}, km.Submit, true},
		{"esc goes back", tea.KeyMsg{Type: tea.KeyEsc}, km.Back, true},
		{"r reloads", runeKey('r'), km.Reload, true},
		{"n starts a query", runeKey('n'), km.NewQuery, true},
		{"s switches session", runeKey('s'), km.Session, true},
		{"x does not quit", runeKey('x'), km.Quit, false},
		{"down is not up", tea.KeyMsg{Type: tea.KeyDown}, km.Up, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, key.Matches(tt.msg, tt.binding))
		})
	}
}

func TestKeyMap_Step(t *testing.T) {
	km := DefaultKeyMap()
	down := runeKey('j')
	up := tea.KeyMsg{Type: tea.KeyUp}

	assert.Equal(t, 1, km.Step(down, 0, 3))
	assert.Equal(t, 2, km.Step(down, 2, 3), "clamped at the last item")
	assert.Equal(t, 0, km.Step(up, 0, 3), "clamped at the first item")
	assert.Equal(t, 1, km.Step(up, 2, 3))
	assert.Equal(t, 0, km.Step(down, 0, 0), "empty list")
	assert.Equal(t, 1, km.Step(runeKey('r'), 1, 3), "other keys")
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []key.Binding{km.Quit, km.Help}, km.ShortHelp())
	assert.Equal(t, []key.Binding{km.NewQuery, km.Session, km.Up, km.Back}, km.ResultsHelp())

	groups := km.FullHelp()
	assert.Len(t, groups, 3)
	count := 0
	for _, g := range groups {
		for _, b := range g {
			assert.NotEmpty(t, b.Help().Key)
			assert.NotEmpty(t, b.Help().Desc)
			count++
		}
	}
	assert.Equal(t, 10, count, "every binding appears once")
}
