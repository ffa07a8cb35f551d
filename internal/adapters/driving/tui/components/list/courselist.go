// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lectern/internal/core/domain"
)

// CourseList displays indexed courses in a navigable list.
type CourseList struct {
	courses  []domain.Course
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewCourseList creates a new course list component.
func NewCourseList(s *styles.Styles) *CourseList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &CourseList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (c *CourseList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (c *CourseList) Update(msg tea.Msg) (*CourseList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			c.MoveUp()
		case tea.KeyDown:
			c.MoveDown()
		default:
			switch msg.String() {
			case "k":
				c.MoveUp()
			case "j":
				c.MoveDown()
			}
		}
	}
	return c, nil
}

// View renders the list.
func (c *CourseList) View() string {
	if len(c.courses) == 0 {
		return c.styles.Muted.Render("No courses indexed. Run 'lectern ingest <dir>' first.")
	}

	lines := make([]string, 0, len(c.courses)+2)
	lines = append(lines, c.styles.Subtitle.Render(fmt.Sprintf("Courses (%d)", len(c.courses))), "")

	// Each course takes two lines.
	visibleCount := (c.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if c.selected >= visibleCount {
		start = c.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(c.courses) {
		end = len(c.courses)
	}

	for i := start; i < end; i++ {
		lines = append(lines, c.renderCourse(i, &c.courses[i]))
	}

	return strings.Join(lines, "\n")
}

// renderCourse formats one course as a title line and a detail line.
func (c *CourseList) renderCourse(index int, course *domain.Course) string {
	indicator := "  "
	if index == c.selected {
		indicator = "> "
	}

	maxTitleLen := c.width - 6
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	title := truncate(course.Title, maxTitleLen)

	var titleLine string
	if index == c.selected {
		titleLine = c.styles.Selected.Render(indicator + title)
	} else {
		titleLine = c.styles.Normal.Render(indicator + title)
	}

	detail := fmt.Sprintf("%d lessons", len(course.Lessons))
	if course.Instructor != "" {
		detail = course.Instructor + " · " + detail
	}
	return titleLine + "\n" + c.styles.Muted.Render("    "+detail)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetCourses replaces the list contents and resets the selection.
func (c *CourseList) SetCourses(courses []domain.Course) {
	c.courses = courses
	c.selected = 0
}

// Courses returns the current courses.
func (c *CourseList) Courses() []domain.Course {
	return c.courses
}

// Selected returns the index of the selected course.
func (c *CourseList) Selected() int {
	return c.selected
}

// SelectedCourse returns the currently selected course, or nil if none.
func (c *CourseList) SelectedCourse() *domain.Course {
	if c.selected < 0 || c.selected >= len(c.courses) {
		return nil
	}
	return &c.courses[c.selected]
}

// MoveUp moves selection up.
func (c *CourseList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
}

// MoveDown moves selection down.
func (c *CourseList) MoveDown() {
	if c.selected < len(c.courses)-1 {
		c.selected++
	}
}

// SetDimensions sets the component dimensions.
func (c *CourseList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Count returns the number of courses.
func (c *CourseList) Count() int {
	return len(c.courses)
}
