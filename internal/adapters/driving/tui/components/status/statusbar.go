// Package status renders the one-line bar under each TUI view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/styles"
)

type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateHelp     State = "help"
	StateBrowsing State = "browsing"
)

// Bar shows what the view is doing on the left and key hints on the right.
// Hints are dropped first when the terminal is too narrow for both.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	turns   int
	width   int
}

func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

func (b *Bar) View() string {
	label := b.label()
	hints := b.hints()

	gap := b.width - lipgloss.Width(label) - lipgloss.Width(hints)
	line := label
	if gap >= 1 {
		line += strings.Repeat(" ", gap) + hints
	}
	return b.styles.StatusBar.Width(b.width).Render(line)
}

func (b *Bar) label() string {
	st := b.styles
	switch b.state {
	case StateThinking:
		return st.Muted.Render("Thinking...")
	case StateError:
		if b.message == "" {
			return st.Error.Render("Error")
		}
		return st.Error.Render("Error: " + b.message)
	case StateHelp:
		return st.Normal.Render("Help")
	case StateBrowsing:
		return st.Normal.Render(orDefault(b.message, "Courses"))
	}
	switch {
	case b.message != "":
		return st.Muted.Render(b.message)
	case b.turns == 1:
		return st.Normal.Render("1 turn")
	case b.turns > 1:
		return st.Normal.Render(fmt.Sprintf("%d turns", b.turns))
	}
	return st.Muted.Render("Ready")
}

func (b *Bar) hints() string {
	bindings := b.keymap.ShortHelp()
	if b.state == StateBrowsing {
		bindings = b.keymap.ListHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range enabled(bindings) {
		h := kb.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(parts, " | "))
}

func enabled(bindings []key.Binding) []key.Binding {
	out := bindings[:0:0]
	for _, kb := range bindings {
		if kb.Enabled() {
			out = append(out, kb)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (b *Bar) SetState(state State)      { b.state = state }
func (b *Bar) State() State              { return b.state }
func (b *Bar) SetMessage(message string) { b.message = message }
func (b *Bar) SetTurns(n int)            { b.turns = n }
func (b *Bar) SetWidth(width int)        { b.width = width }

// Clear returns to Ready with no message and no turns.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.turns = 0
}
