package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// CatalogStats summarises the indexed corpus.
type CatalogStats struct {
	TotalCourses int
	CourseTitles []string
	TotalChunks  int
}

// CourseService exposes course metadata.
type CourseService interface {
	// List returns every indexed course.
	List(ctx context.Context) ([]domain.Course, error)

	// Get returns a course by exact title.
	Get(ctx context.Context, title string) (*domain.Course, error)

	// Outline resolves a fuzzy course reference through the catalog and
	// returns the course.
	Outline(ctx context.Context, hint string) (*domain.Course, error)

	// Stats returns corpus totals.
	Stats(ctx context.Context) (*CatalogStats, error)
}
