package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Tool names offered to the model.
const (
	ToolSearchCourseContent = "search_course_content"
	ToolGetCourseOutline    = "get_course_outline"
)

// Tool argument names.
const (
	argQuery        = "query"
	argCourseName   = "course_name"
	argLessonNumber = "lesson_number"
)

// ToolDeclarations returns the tools the model may call.
func ToolDeclarations() []domain.ToolDeclaration {
	return []domain.ToolDeclaration{
		{
			Name:        ToolSearchCourseContent,
			Description: "Search course materials with smart course name matching and lesson filtering",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					argQuery: map[string]any{
						"type":        "string",
						"description": "What to search for in the course content",
					},
					argCourseName: map[string]any{
						"type":        "string",
						"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
					},
					argLessonNumber: map[string]any{
						"type":        "integer",
						"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
					},
				},
				"required": []string{argQuery},
			},
		},
		{
			Name:        ToolGetCourseOutline,
			Description: "Get the outline of a course: title, link, instructor and the numbered lesson list",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					argCourseName: map[string]any{
						"type":        "string",
						"description": "Course title (partial matches work)",
					},
				},
				"required": []string{argCourseName},
			},
		},
	}
}

// ToolExecutor runs tool requests against the search and course services.
// Every failure is reported inside the ToolResult so the model can still
// produce an answer.
type ToolExecutor struct {
	search  driving.SearchService
	courses driving.CourseService
}

// NewToolExecutor creates a tool executor.
func NewToolExecutor(search driving.SearchService, courses driving.CourseService) *ToolExecutor {
	return &ToolExecutor{search: search, courses: courses}
}

// Execute runs one tool request.
func (e *ToolExecutor) Execute(ctx context.Context, req domain.ToolRequest) domain.ToolResult {
	logger.Debugw("executing tool", "name", req.Name, "args", req.Arguments)

	var (
		result domain.ToolResult
		err    error
	)
	switch req.Name {
	case ToolSearchCourseContent:
		result, err = e.searchContent(ctx, req)
	case ToolGetCourseOutline:
		result, err = e.outline(ctx, req)
	default:
		err = fmt.Errorf("%w: unknown tool %q", domain.ErrInvalidInput, req.Name)
	}

	result.CallID = req.ID
	result.Name = req.Name
	if err != nil {
		logger.Debug("tool %s failed: %v", req.Name, err)
		return domain.ToolResult{
			CallID:  req.ID,
			Name:    req.Name,
			Content: toolErrorText(err),
			IsError: true,
		}
	}
	return result
}

func (e *ToolExecutor) searchContent(ctx context.Context, req domain.ToolRequest) (domain.ToolResult, error) {
	query := req.StringArg(argQuery)
	if query == "" {
		return domain.ToolResult{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, argQuery)
	}
	lesson, ok := req.IntArg(argLessonNumber)
	if !ok {
		return domain.ToolResult{}, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, argLessonNumber)
	}

	res, err := e.search.Search(ctx, domain.SearchQuery{
		Query:        query,
		CourseHint:   req.StringArg(argCourseName),
		LessonNumber: lesson,
	})
	if err != nil {
		return domain.ToolResult{}, err
	}
	return domain.ToolResult{Content: res.Format(), Sources: res.Sources}, nil
}

func (e *ToolExecutor) outline(ctx context.Context, req domain.ToolRequest) (domain.ToolResult, error) {
	course, err := e.courses.Outline(ctx, req.StringArg(argCourseName))
	if err != nil {
		return domain.ToolResult{}, err
	}
	return domain.ToolResult{
		Content: course.Outline(),
		Sources: []domain.Source{{CourseTitle: course.Title, Link: course.Link}},
	}, nil
}

// toolErrorText renders a failure for the model, distinguishing missing data
// from a failed lookup.
func toolErrorText(err error) string {
	switch domain.Classify(err) {
	case domain.ClassNoData:
		return "No course materials have been indexed yet."
	case domain.ClassNoMatch:
		return fmt.Sprintf("No matching course found: %v", err)
	case domain.ClassInvalid:
		return fmt.Sprintf("Invalid tool arguments: %v", err)
	default:
		return fmt.Sprintf("Search failed: %v", err)
	}
}
