package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// SearchInput is the input schema for the search_course_content tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema:"what to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema:"course title, partial matches work"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema:"specific lesson number to search within"`
}

// SearchOutput is the output schema for the search_course_content tool.
type SearchOutput struct {
	Course   string          `json:"course,omitempty"`
	Passages []PassageOutput `json:"passages"`
	Sources  []SourceOutput  `json:"sources"`
}

// PassageOutput is one matching chunk.
type PassageOutput struct {
	Course     string  `json:"course"`
	Lesson     *int    `json:"lesson,omitempty"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

// SourceOutput is provenance for a passage or answer.
type SourceOutput struct {
	Label string `json:"label"`
	Link  string `json:"link,omitempty"`
}

// OutlineInput is the input schema for the get_course_outline tool.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema:"course title, partial matches work"`
}

// OutlineOutput is the output schema for the get_course_outline tool.
type OutlineOutput struct {
	Title      string         `json:"title"`
	Link       string         `json:"link,omitempty"`
	Instructor string         `json:"instructor,omitempty"`
	Lessons    []LessonOutput `json:"lessons"`
}

// LessonOutput is one lesson in an outline.
type LessonOutput struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session to continue, from a previous answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string         `json:"answer"`
	SessionID string         `json:"session_id"`
	Sources   []SourceOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_course_outline",
		Description: "Get the outline of a course: title, link, instructor and the numbered lesson list",
	}, s.handleOutline)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question about the indexed courses, citing the lessons used",
		}, s.handleAsk)
	}
}

// handleSearch handles the search_course_content tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}

	res, err := s.ports.Search.Search(ctx, domain.SearchQuery{
		Query:        input.Query,
		CourseHint:   input.CourseName,
		LessonNumber: input.LessonNumber,
	})
	if err != nil {
		return nil, SearchOutput{}, describe(err)
	}

	output := SearchOutput{
		Course:   res.ResolvedCourse,
		Passages: make([]PassageOutput, len(res.Passages)),
		Sources:  sourcesOutput(res.Sources),
	}
	for i, p := range res.Passages {
		output.Passages[i] = PassageOutput{
			Course:     p.CourseTitle,
			Lesson:     p.LessonNumber,
			Similarity: p.Similarity,
			Text:       p.Text,
		}
	}

	return textResult(res.Format()), output, nil
}

// handleOutline handles the get_course_outline tool invocation.
func (s *Server) handleOutline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OutlineInput,
) (*mcp.CallToolResult, OutlineOutput, error) {
	course, err := s.ports.Courses.Outline(ctx, input.CourseName)
	if err != nil {
		return nil, OutlineOutput{}, describe(err)
	}

	output := OutlineOutput{
		Title:      course.Title,
		Link:       course.Link,
		Instructor: course.Instructor,
		Lessons:    make([]LessonOutput, len(course.Lessons)),
	}
	for i, l := range course.Lessons {
		output.Lessons[i] = LessonOutput{Number: l.Number, Title: l.Title, Link: l.Link}
	}

	return textResult(course.Outline()), output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Answer(ctx, input.Question, input.SessionID)
	if err != nil {
		return nil, AskOutput{}, describe(err)
	}

	return textResult(answer.Text), AskOutput{
		Answer:    answer.Text,
		SessionID: answer.SessionID,
		Sources:   sourcesOutput(answer.Sources),
	}, nil
}

func sourcesOutput(sources []domain.Source) []SourceOutput {
	out := make([]SourceOutput, len(sources))
	for i, src := range sources {
		out[i] = SourceOutput{Label: src.Label(), Link: src.Link}
	}
	return out
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// describe turns a service error into a message an assistant can act on.
func describe(err error) error {
	switch domain.Classify(err) {
	case domain.ClassNoData:
		return fmt.Errorf("no course materials have been indexed yet: %w", err)
	case domain.ClassNoMatch:
		return fmt.Errorf("no matching course found: %w", err)
	case domain.ClassInvalid:
		return fmt.Errorf("invalid arguments: %w", err)
	default:
		return err
	}
}
