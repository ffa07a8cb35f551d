package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for lectern resources.
	uriScheme = "lectern://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing courses.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "courses",
		Name:        "courses",
		Description: "All indexed courses with their instructors and lesson counts",
		MIMEType:    "application/json",
	}, s.handleCoursesResource)

	// Template for one course outline. The title is path-escaped.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "courses/{title}",
		Name:        "course-outline",
		Description: "Outline of a specific course",
		MIMEType:    "text/plain",
	}, s.handleCourseResource)
}

// handleCoursesResource returns every indexed course.
func (s *Server) handleCoursesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	courses, err := s.ports.Courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	type courseInfo struct {
		Title      string `json:"title"`
		Link       string `json:"link,omitempty"`
		Instructor string `json:"instructor,omitempty"`
		Lessons    int    `json:"lessons"`
		URI        string `json:"uri"`
	}

	infos := make([]courseInfo, len(courses))
	for i := range courses {
		infos[i] = courseInfo{
			Title:      courses[i].Title,
			Link:       courses[i].Link,
			Instructor: courses[i].Instructor,
			Lessons:    len(courses[i].Lessons),
			URI:        courseURI(courses[i].Title),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling courses: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleCourseResource returns the outline of the course named in the URI.
func (s *Server) handleCourseResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	title := extractCourseTitle(req.Params.URI)
	if title == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	course, err := s.ports.Courses.Get(ctx, title)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting course: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     course.Outline(),
		}},
	}, nil
}

// courseURI builds lectern://courses/{title}.
func courseURI(title string) string {
	return uriScheme + "courses/" + url.PathEscape(title)
}

// extractCourseTitle extracts the title from a URI like lectern://courses/{title}.
func extractCourseTitle(uri string) string {
	const prefix = uriScheme + "courses/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	title, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return title
}
