// Package tui is the interactive chat front end, built on Bubble Tea.
package tui

import (
	"errors"

	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

var (
	ErrMissingAnswerService = errors.New("tui: answer service is required")
	ErrMissingCourseService = errors.New("tui: course service is required")
)

// Ports are the core services the TUI drives. Sessions is optional; without
// it a new session (ctrl+n) only forgets the session ID locally.
type Ports struct {
	Answer   driving.AnswerService
	Courses  driving.CourseService
	Sessions driving.SessionService
}

func (p *Ports) Validate() error {
	switch {
	case p == nil || p.Answer == nil:
		return ErrMissingAnswerService
	case p.Courses == nil:
		return ErrMissingCourseService
	}
	return nil
}
