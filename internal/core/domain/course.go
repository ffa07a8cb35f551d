package domain

import (
	"fmt"
	"strings"
	"time"
)

// Lesson is one numbered lesson of a course.
type Lesson struct {
	// Number is the lesson number as written in the transcript.
	Number int

	// Title is the lesson title.
	Title string

	// Link is the lesson URL, empty when the transcript has none.
	Link string
}

// Course is a parsed transcript. Title is the primary key across the system.
type Course struct {
	// Title uniquely identifies the course.
	Title string

	// Link is the course URL.
	Link string

	// Instructor is the course instructor.
	Instructor string

	// Lessons are in document order.
	Lessons []Lesson

	// ContentHash is the hex SHA-256 of the source text.
	// Re-ingesting identical text is a no-op.
	ContentHash string

	// URI is where the transcript was read from.
	URI string

	// IngestedAt is when the course was last written to the index.
	IngestedAt time.Time
}

// Lesson returns the lesson with the given number.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// LinkFor returns the lesson link when one exists, otherwise the course link.
func (c *Course) LinkFor(lesson *int) string {
	if lesson != nil {
		if l, ok := c.Lesson(*lesson); ok && l.Link != "" {
			return l.Link
		}
	}
	return c.Link
}

// CatalogText is the text embedded into the catalog collection.
func (c *Course) CatalogText() string {
	var b strings.Builder
	b.WriteString(c.Title)
	if c.Instructor != "" {
		b.WriteString("\nInstructor: ")
		b.WriteString(c.Instructor)
	}
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "\nLesson %d: %s", l.Number, l.Title)
	}
	return b.String()
}

// Outline renders the course title, link, instructor and lesson list.
func (c *Course) Outline() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):", len(c.Lessons))
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "\n  Lesson %d: %s", l.Number, l.Title)
	}
	return b.String()
}

// Chunk is a searchable unit of lesson text.
type Chunk struct {
	// ID is deterministic for a (course, index) pair.
	ID string

	// CourseTitle links the chunk to its Course.
	CourseTitle string

	// LessonNumber is nil for course-level preamble text.
	LessonNumber *int

	// Index is the zero-based running index across the whole course.
	Index int

	// Raw is the chunk text as it appears in the lesson body.
	Raw string

	// Content is what gets embedded and returned: an optional context
	// prefix followed by Raw.
	Content string
}

// LessonRef returns a pointer to a copy of n.
func LessonRef(n int) *int {
	return &n
}
