package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// CourseStore persists course metadata keyed by title.
type CourseStore interface {
	// Save inserts or replaces a course.
	Save(ctx context.Context, course *domain.Course) error

	// Get retrieves a course by exact title.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, title string) (*domain.Course, error)

	// List returns every course ordered by title.
	List(ctx context.Context) ([]domain.Course, error)

	// Delete removes a course. Deleting a missing course is not an error.
	Delete(ctx context.Context, title string) error
}
