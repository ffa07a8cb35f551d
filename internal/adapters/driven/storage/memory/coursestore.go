package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure CourseStore implements the interface.
var _ driven.CourseStore = (*CourseStore)(nil)

// CourseStore is an in-memory implementation of driven.CourseStore.
type CourseStore struct {
	mu      sync.RWMutex
	courses map[string]domain.Course
}

// NewCourseStore creates a new in-memory course store.
func NewCourseStore() *CourseStore {
	return &CourseStore{
		courses: make(map[string]domain.Course),
	}
}

// Save stores or replaces a course.
func (s *CourseStore) Save(_ context.Context, course *domain.Course) error {
	if course == nil || course.Title == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.Title] = cloneCourse(*course)
	return nil
}

// Get retrieves a course by title.
func (s *CourseStore) Get(_ context.Context, title string) (*domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[title]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = cloneCourse(c)
	return &c, nil
}

// List returns every course ordered by title.
func (s *CourseStore) List(_ context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, cloneCourse(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// Delete removes a course.
func (s *CourseStore) Delete(_ context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.courses, title)
	return nil
}

func cloneCourse(c domain.Course) domain.Course {
	c.Lessons = append([]domain.Lesson(nil), c.Lessons...)
	return c
}
