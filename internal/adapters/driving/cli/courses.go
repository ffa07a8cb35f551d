package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List indexed courses",
	RunE:  runCoursesList,
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed courses",
	RunE:  runCoursesList,
}

var coursesOutlineCmd = &cobra.Command{
	Use:   "outline [course]",
	Short: "Show a course outline",
	Long: `Shows the title, link, instructor and lessons of the course that best
matches the given name. Partial names work.`,
	Args: cobra.ExactArgs(1),
	RunE: runCoursesOutline,
}

var coursesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index totals",
	RunE:  runCoursesStats,
}

func init() {
	coursesCmd.AddCommand(coursesListCmd)
	coursesCmd.AddCommand(coursesOutlineCmd)
	coursesCmd.AddCommand(coursesStatsCmd)
	rootCmd.AddCommand(coursesCmd)
}

func runCoursesList(cmd *cobra.Command, _ []string) error {
	if courseService == nil {
		return errCoursesNotConfigured
	}

	courses, err := courseService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	if len(courses) == 0 {
		cmd.Println("No courses indexed. Run 'lectern ingest <dir>' first.")
		return nil
	}

	cmd.Printf("Courses (%d):\n", len(courses))
	for i := range courses {
		c := &courses[i]
		cmd.Printf("  %s\n", c.Title)
		detail := fmt.Sprintf("%d lessons", len(c.Lessons))
		if c.Instructor != "" {
			detail = c.Instructor + ", " + detail
		}
		cmd.Printf("      %s\n", detail)
	}
	return nil
}

func runCoursesOutline(cmd *cobra.Command, args []string) error {
	if courseService == nil {
		return errCoursesNotConfigured
	}

	course, err := courseService.Outline(commandContext(cmd), args[0])
	if err != nil {
		switch domain.Classify(err) {
		case domain.ClassNoData:
			return errNoCoursesIndexed
		case domain.ClassNoMatch, domain.ClassNotFound:
			return fmt.Errorf("no course found matching %q", args[0])
		}
		return fmt.Errorf("failed to get outline: %w", err)
	}

	cmd.Println(course.Outline())
	return nil
}

func runCoursesStats(cmd *cobra.Command, _ []string) error {
	if courseService == nil {
		return errCoursesNotConfigured
	}

	stats, err := courseService.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Courses: %d\n", stats.TotalCourses)
	cmd.Printf("Chunks:  %d\n", stats.TotalChunks)
	for _, title := range stats.CourseTitles {
		cmd.Printf("  - %s\n", title)
	}
	return nil
}
