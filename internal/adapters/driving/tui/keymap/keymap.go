// Package keymap holds the TUI's key bindings and the hint sets each view
// shows.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Quit       key.Binding
	Help       key.Binding
	Back       key.Binding
	Submit     key.Binding
	Up         key.Binding // also scrolls the conversation
	Down       key.Binding
	Select     key.Binding
	Courses    key.Binding
	NewSession key.Binding // forgets the session window
}

func bind(hint, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(hint, desc))
}

func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:       bind("ctrl+c", "quit", "ctrl+c"),
		Help:       bind("f1", "help", "f1"),
		Back:       bind("esc", "back", "esc"),
		Submit:     bind("enter", "ask", "enter"),
		Up:         bind("↑", "up", "up", "pgup"),
		Down:       bind("↓", "down", "down", "pgdown"),
		Select:     bind("enter", "outline", "enter"),
		Courses:    bind("ctrl+o", "courses", "ctrl+o"),
		NewSession: bind("ctrl+n", "new session", "ctrl+n"),
	}
}

// ShortHelp is the chat view's hint line.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Courses, k.NewSession, k.Help, k.Quit}
}

// ListHelp is the course list's hint line.
func (k *KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back}
}

// FullHelp groups every binding into the help screen's columns.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Up, k.Down},
		{k.Courses, k.Select, k.Back},
		{k.NewSession, k.Help, k.Quit},
	}
}

// Matches reports whether keyStr, as produced by tea.KeyMsg.String, fires
// binding. Disabled bindings never match.
func Matches(keyStr string, binding key.Binding) bool {
	return binding.Enabled() && slices.Contains(binding.Keys(), keyStr)
}
