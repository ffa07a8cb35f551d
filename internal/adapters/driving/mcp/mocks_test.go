package mcp

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// mockSearchService records the last query and returns a canned result.
type mockSearchService struct {
	result domain.SearchResult
	err    error
	last   domain.SearchQuery
}

func (m *mockSearchService) Search(_ context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	m.last = q
	return m.result, m.err
}

// mockCourseService serves a fixed set of courses.
type mockCourseService struct {
	courses []domain.Course
	err     error
	hint    string
}

func (m *mockCourseService) List(_ context.Context) ([]domain.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseService) Get(_ context.Context, title string) (*domain.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.courses {
		if m.courses[i].Title == title {
			return &m.courses[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCourseService) Outline(_ context.Context, hint string) (*domain.Course, error) {
	m.hint = hint
	if m.err != nil {
		return nil, m.err
	}
	if len(m.courses) == 0 {
		return nil, domain.ErrCatalogEmpty
	}
	return &m.courses[0], nil
}

func (m *mockCourseService) Stats(_ context.Context) (*driving.CatalogStats, error) {
	titles := make([]string, len(m.courses))
	for i := range m.courses {
		titles[i] = m.courses[i].Title
	}
	return &driving.CatalogStats{TotalCourses: len(m.courses), CourseTitles: titles}, m.err
}

// mockAnswerService echoes the question.
type mockAnswerService struct {
	err error
}

func (m *mockAnswerService) Answer(_ context.Context, query, sessionID string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if sessionID == "" {
		sessionID = "session_1"
	}
	lesson := 2
	return &domain.Answer{
		Text:      "answer to " + query,
		SessionID: sessionID,
		Sources:   []domain.Source{{CourseTitle: "Intro to Testing", LessonNumber: &lesson, Link: "https://example.com/l2"}},
		ToolUsed:  "search_course_content",
	}, nil
}

func testCourses() []domain.Course {
	return []domain.Course{
		{
			Title:      "Intro to Testing",
			Link:       "https://example.com/testing",
			Instructor: "Ada",
			Lessons: []domain.Lesson{
				{Number: 0, Title: "Welcome", Link: "https://example.com/l0"},
				{Number: 1, Title: "Mocks"},
			},
		},
		{Title: "Go Concurrency", Instructor: "Rob"},
	}
}

func newTestServer(search *mockSearchService, courses *mockCourseService, answer driving.AnswerService) *Server {
	s, err := NewServer(&Ports{Search: search, Courses: courses, Answer: answer})
	if err != nil {
		panic(err)
	}
	return s
}
