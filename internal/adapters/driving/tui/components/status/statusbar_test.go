package status

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/styles"
)

func TestNewBar_Defaults(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.width)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)

	custom := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())
	assert.Contains(t, custom.View(), "Ready")
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		turns   int
		want    []string
		absent  []string
	}{
		{name: "ready", state: StateReady, want: []string{"Ready", "ctrl+o: courses"}},
		{name: "one turn", state: StateReady, turns: 1, want: []string{"1 turn"}, absent: []string{"1 turns"}},
		{name: "turns", state: StateReady, turns: 3, want: []string{"3 turns"}},
		{name: "message beats turns", state: StateReady, message: "New session", turns: 2, want: []string{"New session"}, absent: []string{"2 turns"}},
		{name: "thinking", state: StateThinking, want: []string{"Thinking..."}},
		{name: "error", state: StateError, message: "boom", want: []string{"Error: boom"}},
		{name: "bare error", state: StateError, want: []string{"Error"}},
		{name: "help", state: StateHelp, want: []string{"Help"}},
		{name: "browsing", state: StateBrowsing, want: []string{"Courses", "enter: outline"}},
		{name: "browsing message", state: StateBrowsing, message: "3 courses", want: []string{"3 courses"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetTurns(tt.turns)

			view := bar.View()
			for _, s := range tt.want {
				assert.Contains(t, view, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, view, s)
			}
		})
	}
}

func TestBar_NarrowDropsHints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(20)

	view := bar.View()
	assert.Contains(t, view, "Ready")
	assert.NotContains(t, view, "ctrl+o")
	for _, line := range strings.Split(view, "\n") {
		assert.NotContains(t, line, "|")
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("oops")
	bar.SetTurns(4)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.message)
	assert.Zero(t, bar.turns)
}
