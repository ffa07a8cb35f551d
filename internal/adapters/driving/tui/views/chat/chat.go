// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

var ErrNoAnswerService = errors.New("answer service is required")

// Turn is one question and, once it arrives, its answer.
type Turn struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// Pending reports whether the answer has not arrived yet.
func (t Turn) Pending() bool {
	return t.Answer == nil && t.Err == nil
}

// View is the chat view: a scrolling transcript, the question input and a
// status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	statusbar  *status.Bar

	answerService  driving.AnswerService
	sessionService driving.SessionService
	ctx            context.Context

	turns     []Turn
	sessionID string
	width     int
	height    int
	ready     bool
}

// NewView creates a new chat view. sessionService may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answerService driving.AnswerService,
	sessionService driving.SessionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:         s,
		keymap:         km,
		input:          input.NewQuestionInput(s),
		transcript:     viewport.New(80, 16),
		statusbar:      status.NewBar(s, km),
		answerService:  answerService,
		sessionService: sessionService,
		ctx:            context.Background(),
		width:          80,
		height:         24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithSession resumes an existing session.
func (v *View) WithSession(sessionID string) *View {
	v.sessionID = sessionID
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.SessionCleared:
		if msg.Err != nil {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.statusbar.Clear()
		v.statusbar.SetMessage("New session")
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Courses):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewCourses} }

	case keymap.Matches(keyStr, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }

	case keymap.Matches(keyStr, v.keymap.NewSession):
		return v, v.newSession()

	case keymap.Matches(keyStr, v.keymap.Up), keymap.Matches(keyStr, v.keymap.Down):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case msg.Type == tea.KeyEnter:
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question.
func (v *View) submit() tea.Cmd {
	return v.Submit(v.input.Value())
}

// Submit asks query unless it is blank or a question is already in flight.
func (v *View) Submit(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" || v.Busy() {
		return nil
	}
	v.input.Reset()
	v.turns = append(v.turns, Turn{Question: query})
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	v.refresh()
	return v.ask(query, v.sessionID)
}

// ask returns a command that answers query in session.
func (v *View) ask(query, sessionID string) tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.AnswerReceived{Query: query, Err: ErrNoAnswerService}
		}
		answer, err := v.answerService.Answer(v.ctx, query, sessionID)
		return messages.AnswerReceived{Query: query, Answer: answer, Err: err}
	}
}

// newSession forgets the current conversation.
func (v *View) newSession() tea.Cmd {
	if v.Busy() {
		return nil
	}
	previous := v.sessionID
	v.sessionID = ""
	v.turns = nil
	v.refresh()

	return func() tea.Msg {
		if v.sessionService == nil || previous == "" {
			return messages.SessionCleared{}
		}
		return messages.SessionCleared{Err: v.sessionService.Clear(v.ctx, previous)}
	}
}

// handleAnswer fills in the pending turn.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if len(v.turns) == 0 || !v.turns[len(v.turns)-1].Pending() {
		return
	}
	last := &v.turns[len(v.turns)-1]
	last.Answer = msg.Answer
	last.Err = msg.Err

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else {
		if msg.Answer != nil && msg.Answer.SessionID != "" {
			v.sessionID = msg.Answer.SessionID
		}
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("")
		v.statusbar.SetTurns(v.answered())
	}
	v.refresh()
}

func (v *View) answered() int {
	n := 0
	for _, t := range v.turns {
		if t.Answer != nil {
			n++
		}
	}
	return n
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

// renderTranscript formats every turn with its sources.
func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask a question about your courses, or something general.")
	}

	wrap := lipgloss.NewStyle().Width(v.width - 2)
	blocks := make([]string, 0, len(v.turns))
	for _, t := range v.turns {
		lines := []string{v.styles.Question.Render("You: ") + wrap.Render(t.Question)}
		switch {
		case t.Pending():
			lines = append(lines, v.styles.Muted.Render("..."))
		case t.Err != nil:
			lines = append(lines, v.styles.Error.Render("Error: "+t.Err.Error()))
		default:
			lines = append(lines, wrap.Render(t.Answer.Text))
			for _, src := range t.Answer.Sources {
				line := "  " + src.Label()
				if src.Link != "" {
					line += " (" + src.Link + ")"
				}
				lines = append(lines, v.styles.Source.Render(line))
			}
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Lectern"),
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Header, spacing, input box and status bar take 8 lines.
	transcriptHeight := height - 8
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	v.transcript.Width = width
	v.transcript.Height = transcriptHeight
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Busy reports whether a question is awaiting its answer.
func (v *View) Busy() bool {
	return len(v.turns) > 0 && v.turns[len(v.turns)-1].Pending()
}

// Turns returns the conversation so far.
func (v *View) Turns() []Turn {
	return v.turns
}

// SessionID returns the session the conversation is recorded under.
func (v *View) SessionID() string {
	return v.sessionID
}

// Query returns the text currently typed.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the text in the input.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
