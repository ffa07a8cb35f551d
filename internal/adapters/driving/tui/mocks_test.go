package tui

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// MockAnswerService implements driving.AnswerService for testing.
type MockAnswerService struct {
	AnswerFunc func(ctx context.Context, query, sessionID string) (*domain.Answer, error)
}

func (m *MockAnswerService) Answer(ctx context.Context, query, sessionID string) (*domain.Answer, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, query, sessionID)
	}
	return &domain.Answer{Text: "ok", SessionID: "session_1"}, nil
}

// MockCourseService implements driving.CourseService for testing.
type MockCourseService struct {
	Courses []domain.Course
	Err     error
}

func (m *MockCourseService) List(_ context.Context) ([]domain.Course, error) {
	return m.Courses, m.Err
}

func (m *MockCourseService) Get(_ context.Context, _ string) (*domain.Course, error) {
	return nil, domain.ErrNotFound
}

func (m *MockCourseService) Outline(_ context.Context, _ string) (*domain.Course, error) {
	return nil, domain.ErrNotFound
}

func (m *MockCourseService) Stats(_ context.Context) (*driving.CatalogStats, error) {
	return &driving.CatalogStats{}, nil
}
