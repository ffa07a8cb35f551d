// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/lectern/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Query string
}

// AnswerReceived carries the model's answer back to the chat view.
type AnswerReceived struct {
	Query  string
	Answer *domain.Answer
	Err    error
}

// CoursesLoaded carries the indexed courses.
type CoursesLoaded struct {
	Courses []domain.Course
	Err     error
}

// SessionCleared signals the conversation was reset.
type SessionCleared struct {
	Err error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewCourses lists indexed courses and their outlines.
	ViewCourses
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewCourses:
		return "courses"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
