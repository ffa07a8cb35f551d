package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// Ensure CourseService implements the interface.
var _ driving.CourseService = (*CourseService)(nil)

// CourseService exposes course metadata and catalog resolution.
type CourseService struct {
	courseStore driven.CourseStore
	index       *SemanticIndex
}

// NewCourseService creates a new course service.
func NewCourseService(courseStore driven.CourseStore, index *SemanticIndex) *CourseService {
	return &CourseService{
		courseStore: courseStore,
		index:       index,
	}
}

// List returns every indexed course ordered by title.
func (s *CourseService) List(ctx context.Context) ([]domain.Course, error) {
	return s.courseStore.List(ctx)
}

// Get returns a course by exact title.
func (s *CourseService) Get(ctx context.Context, title string) (*domain.Course, error) {
	return s.courseStore.Get(ctx, title)
}

// Outline resolves a course reference through the catalog.
func (s *CourseService) Outline(ctx context.Context, hint string) (*domain.Course, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil, fmt.Errorf("%w: course name is required", domain.ErrInvalidInput)
	}

	title, _, err := s.index.ResolveCourse(ctx, hint)
	if err != nil {
		return nil, err
	}
	course, err := s.courseStore.Get(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("load course %q: %w", title, err)
	}
	return course, nil
}

// Stats returns corpus totals.
func (s *CourseService) Stats(ctx context.Context) (*driving.CatalogStats, error) {
	courses, err := s.courseStore.List(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := s.index.ContentCount(ctx)
	if err != nil {
		return nil, err
	}

	stats := &driving.CatalogStats{
		TotalCourses: len(courses),
		CourseTitles: make([]string, 0, len(courses)),
		TotalChunks:  chunks,
	}
	for _, c := range courses {
		stats.CourseTitles = append(stats.CourseTitles, c.Title)
	}
	return stats, nil
}
