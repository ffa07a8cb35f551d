package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lectern/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Answer:  &MockAnswerService{},
		Courses: &MockCourseService{Courses: []domain.Course{{Title: "Intro to Testing"}}},
	}
}

func newReadyApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Courses: &MockCourseService{}})

	assert.ErrorIs(t, err, ErrMissingAnswerService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	result := app.WithContext(ctx)

	assert.Equal(t, app, result)
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Lectern")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuestionSubmitted(t *testing.T) {
	app := newReadyApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewCourses})

	_, cmd := app.Update(messages.QuestionSubmitted{Query: "what is a mock?"})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChat, app.CurrentView())

	app.Update(cmd())
	assert.Contains(t, app.View(), "what is a mock?")
	assert.NoError(t, app.Err())
}

func TestApp_AnswerErrorRecorded(t *testing.T) {
	ports := newTestPorts()
	ports.Answer = &MockAnswerService{
		AnswerFunc: func(_ context.Context, _, _ string) (*domain.Answer, error) {
			return nil, errors.New("no model")
		},
	}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(messages.QuestionSubmitted{Query: "hi"})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.EqualError(t, app.Err(), "no model")
}

func TestApp_CoursesRoundTrip(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, cmd)
	_, cmd = app.Update(cmd())
	assert.Equal(t, messages.ViewCourses, app.CurrentView())

	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Contains(t, app.View(), "Intro to Testing")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_CoursesLoadError(t *testing.T) {
	app := newReadyApp(t)

	app.Update(messages.CoursesLoaded{Err: errors.New("locked")})

	assert.EqualError(t, app.Err(), "locked")
}

func TestApp_HelpView(t *testing.T) {
	app := newReadyApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "ctrl+n")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newReadyApp(t)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_WithQuestion(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.Equal(t, app, app.WithQuestion("hello").WithSession("session_9"))
	assert.Equal(t, "hello", app.question)
	assert.Equal(t, "session_9", app.chatView.SessionID())
}
