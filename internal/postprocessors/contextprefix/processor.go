// Package contextprefix labels each chunk with its course and lesson so the
// embedding carries that context.
package contextprefix

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor rewrites Content as prefix + Raw. Raw is left untouched.
type Processor struct{}

// New creates a context prefix processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "context_prefix"
}

// Process prefixes every chunk.
func (p *Processor) Process(_ context.Context, _ *domain.Transcript, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Content = Prefix(c.CourseTitle, c.LessonNumber) + c.Raw
		out[i] = c
	}
	return out, nil
}

// Prefix returns "Course <title> Lesson <n> content: ", or
// "Course <title> content: " for course-level text.
func Prefix(courseTitle string, lesson *int) string {
	if lesson == nil {
		return fmt.Sprintf("Course %s content: ", courseTitle)
	}
	return fmt.Sprintf("Course %s Lesson %d content: ", courseTitle, *lesson)
}
