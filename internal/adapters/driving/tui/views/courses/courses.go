// Package courses provides the course browser view for the TUI.
package courses

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lectern/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// View lists indexed courses and shows the outline of the selected one.
type View struct {
	styles        *styles.Styles
	keymap        *keymap.KeyMap
	list          *list.CourseList
	statusbar     *status.Bar
	courseService driving.CourseService
	ctx           context.Context

	outline *domain.Course
	err     error
	width   int
	height  int
	ready   bool
}

// NewView creates a new course browser view.
func NewView(s *styles.Styles, km *keymap.KeyMap, courseService driving.CourseService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StateBrowsing)

	return &View{
		styles:        s,
		keymap:        km,
		list:          list.NewCourseList(s),
		statusbar:     bar,
		courseService: courseService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the course list.
func (v *View) Init() tea.Cmd {
	return v.Load()
}

// Load returns a command that fetches the courses.
func (v *View) Load() tea.Cmd {
	return func() tea.Msg {
		if v.courseService == nil {
			return messages.CoursesLoaded{}
		}
		courses, err := v.courseService.List(v.ctx)
		return messages.CoursesLoaded{Courses: courses, Err: err}
	}
}

// Update handles messages for the course view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.CoursesLoaded:
		v.err = msg.Err
		v.outline = nil
		if msg.Err != nil {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.list.SetCourses(msg.Courses)
		v.statusbar.SetState(status.StateBrowsing)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		if v.outline != nil {
			v.outline = nil
			return v, nil
		}
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }

	case keymap.Matches(keyStr, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }

	case keymap.Matches(keyStr, v.keymap.Select):
		v.outline = v.list.SelectedCourse()
		return v, nil
	}

	if v.outline != nil {
		return v, nil
	}
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the course view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	body := v.list.View()
	switch {
	case v.err != nil:
		body = v.styles.Error.Render("Could not load courses: " + v.err.Error())
	case v.outline != nil:
		body = v.styles.Normal.Render(v.outline.Outline())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Courses"),
		"",
		body,
		"",
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, height-5)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Outline returns the course whose outline is shown, or nil.
func (v *View) Outline() *domain.Course {
	return v.outline
}

// Courses returns the listed courses.
func (v *View) Courses() []domain.Course {
	return v.list.Courses()
}
