package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/views/courses"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// chatView is the conversation view.
	chatView *chat.View

	// coursesView is the course browser.
	coursesView *courses.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// question is asked as soon as the program starts.
	question string

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		chatView:    chat.NewView(s, km, ports.Answer, ports.Sessions),
		coursesView: courses.NewView(s, km, ports.Courses),
		currentView: messages.ViewChat,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.coursesView.WithContext(ctx)
	return a
}

// WithSession resumes an existing conversation.
func (a *App) WithSession(sessionID string) *App {
	a.chatView.WithSession(sessionID)
	return a
}

// WithQuestion asks question once the program starts.
func (a *App) WithQuestion(question string) *App {
	a.question = question
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("lectern"),
		a.chatView.Init(),
	}
	if a.question != "" {
		q := a.question
		cmds = append(cmds, func() tea.Msg { return messages.QuestionSubmitted{Query: q} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewCourses {
			return a, a.coursesView.Load()
		}
		return a, nil

	case messages.QuestionSubmitted:
		a.currentView = messages.ViewChat
		return a, a.chatView.Submit(msg.Query)

	case messages.AnswerReceived:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.SessionCleared:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.CoursesLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.coursesView, cmd = a.coursesView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewCourses:
		a.coursesView, cmd = a.coursesView.Update(msg)
	case messages.ViewHelp:
		// Any key leaves help.
		if _, ok := msg.(tea.KeyMsg); ok {
			a.currentView = messages.ViewChat
		}
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewCourses:
		return a.coursesView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.chatView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Chat:
  (type)      Enter a question
  enter       Ask
  ↑/↓         Scroll the conversation
  ctrl+n      Start a new session
  ctrl+o      Browse courses

Courses:
  ↑/↓, j/k    Navigate courses
  enter       Show the course outline
  esc         Back to chat

Anywhere:
  f1          This help
  ctrl+c      Quit

[any key] back to chat`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
	a.coursesView.SetDimensions(width, height)
}
