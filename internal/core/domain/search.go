package domain

import (
	"fmt"
	"strings"
)

// SearchQuery is a content search request.
type SearchQuery struct {
	// Query is the free-text question.
	Query string

	// CourseHint is a fuzzy course reference resolved through the catalog.
	CourseHint string

	// LessonNumber restricts results to one lesson.
	LessonNumber *int

	// Limit overrides the configured result count when positive.
	Limit int
}

// Passage is one content hit.
type Passage struct {
	// Text is the stored chunk content.
	Text string

	// CourseTitle is the course the passage belongs to.
	CourseTitle string

	// LessonNumber is nil for preamble passages.
	LessonNumber *int

	// ChunkIndex is the chunk's running index within the course.
	ChunkIndex int

	// Similarity is cosine similarity, higher is closer.
	Similarity float64
}

// Label renders "Course - Lesson N", or just the course title.
func (p Passage) Label() string {
	return sourceLabel(p.CourseTitle, p.LessonNumber)
}

// Source is provenance attached to an answer.
type Source struct {
	// CourseTitle is the course the material came from.
	CourseTitle string

	// LessonNumber is nil when the source is the whole course.
	LessonNumber *int

	// Link is the lesson link when known, else the course link.
	Link string
}

// Label renders "Course - Lesson N", or just the course title.
func (s Source) Label() string {
	return sourceLabel(s.CourseTitle, s.LessonNumber)
}

func sourceLabel(course string, lesson *int) string {
	if lesson == nil {
		return course
	}
	return fmt.Sprintf("%s - Lesson %d", course, *lesson)
}

// SearchResult is the outcome of a content search.
type SearchResult struct {
	// Passages are ordered by similarity, highest first.
	Passages []Passage

	// ResolvedCourse is the exact course title a hint resolved to.
	ResolvedCourse string

	// LessonNumber echoes the lesson filter.
	LessonNumber *int

	// Sources are derived from Passages, deduplicated in order.
	Sources []Source
}

// Empty reports whether the search found nothing.
func (r SearchResult) Empty() bool {
	return len(r.Passages) == 0
}

// EmptyMessage is the text shown to the model for an empty result.
func (r SearchResult) EmptyMessage() string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if r.ResolvedCourse != "" {
		fmt.Fprintf(&b, " in course '%s'", r.ResolvedCourse)
	}
	if r.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *r.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// Format renders passages as "[Course - Lesson N]\ntext" blocks separated
// by blank lines, or the empty message.
func (r SearchResult) Format() string {
	if r.Empty() {
		return r.EmptyMessage()
	}
	blocks := make([]string, 0, len(r.Passages))
	for _, p := range r.Passages {
		blocks = append(blocks, "["+p.Label()+"]\n"+p.Text)
	}
	return strings.Join(blocks, "\n\n")
}
