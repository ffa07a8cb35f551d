package mcp

import (
	"errors"

	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

var (
	ErrMissingSearchService = errors.New("mcp: search service is required")
	ErrMissingCourseService = errors.New("mcp: course service is required")
)

// Ports are the core services behind the tools. Answer is optional and
// the ask tool is only registered when it is set.
type Ports struct {
	Search  driving.SearchService
	Courses driving.CourseService
	Answer  driving.AnswerService
}

func (p *Ports) Validate() error {
	switch {
	case p == nil || p.Search == nil:
		return ErrMissingSearchService
	case p.Courses == nil:
		return ErrMissingCourseService
	}
	return nil
}
