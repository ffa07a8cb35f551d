// Package input is the question box at the bottom of the chat view.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/styles"
)

const (
	label         = "Ask: "
	maxQuestion   = 1024
	minFieldWidth = 20
)

// QuestionInput is a focused bubbles textinput with an "Ask:" label. Value,
// SetValue, Reset, Focus, Blur and Focused come from the embedded model.
type QuestionInput struct {
	textinput.Model

	styles *styles.Styles
	width  int
}

func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	ti := textinput.New()
	ti.Placeholder = "Ask about your courses..."
	ti.CharLimit = maxQuestion
	ti.Focus()

	q := &QuestionInput{Model: ti, styles: s}
	q.SetWidth(80)
	return q
}

func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.Model, cmd = q.Model.Update(msg)
	return q, cmd
}

func (q *QuestionInput) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Center, //nolint:misspell // lipgloss constant
		q.styles.Title.Render(label),
		q.styles.InputField.Render(q.Model.View()),
	)
}

// SetWidth sizes the whole row; the text field gets what the label and
// field frame leave, but never less than minFieldWidth.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	chrome := lipgloss.Width(label) + q.styles.InputField.GetHorizontalFrameSize() + 1
	q.Model.Width = max(width-chrome, minFieldWidth)
}

func (q *QuestionInput) Width() int {
	return q.width
}
