package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var (
	searchLimit  int
	searchJSON   bool
	searchCourse string
	searchLesson int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search course content",
	Long: `Runs a semantic search over lesson chunks without involving the model.

--course takes a partial or fuzzy course name, which is resolved to the
closest indexed course title. --lesson restricts results to one lesson.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchCourse, "course", "c", "", "restrict to the course best matching this name")
	searchCmd.Flags().IntVarP(&searchLesson, "lesson", "l", -1, "restrict to one lesson number")
	rootCmd.AddCommand(searchCmd)
}

// searchOutput is the JSON shape of a search result.
type searchOutput struct {
	Course   string          `json:"course,omitempty"`
	Lesson   *int            `json:"lesson,omitempty"`
	Passages []passageOutput `json:"passages"`
}

type passageOutput struct {
	Course     string  `json:"course"`
	Lesson     *int    `json:"lesson,omitempty"`
	Chunk      int     `json:"chunk"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errSearchNotConfigured
	}

	q := domain.SearchQuery{
		Query:      args[0],
		CourseHint: searchCourse,
		Limit:      searchLimit,
	}
	if cmd.Flags().Changed("lesson") {
		lesson := searchLesson
		q.LessonNumber = &lesson
	}

	result, err := searchService.Search(commandContext(cmd), q)
	if err != nil {
		switch domain.Classify(err) {
		case domain.ClassNoData:
			return errNoCoursesIndexed
		case domain.ClassNoMatch:
			return fmt.Errorf("no course found matching %q", searchCourse)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	outputSearchTable(cmd, result)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, result domain.SearchResult) error {
	out := searchOutput{
		Course:   result.ResolvedCourse,
		Lesson:   result.LessonNumber,
		Passages: make([]passageOutput, 0, len(result.Passages)),
	}
	for _, p := range result.Passages {
		out.Passages = append(out.Passages, passageOutput{
			Course:     p.CourseTitle,
			Lesson:     p.LessonNumber,
			Chunk:      p.ChunkIndex,
			Similarity: p.Similarity,
			Text:       p.Text,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result domain.SearchResult) {
	if result.Empty() {
		cmd.Println(result.EmptyMessage())
		return
	}

	if result.ResolvedCourse != "" {
		cmd.Printf("Course: %s\n", result.ResolvedCourse)
	}
	cmd.Println("Results:")
	cmd.Println()
	for i, p := range result.Passages {
		// Format: [N] Course - Lesson N (similarity)
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, p.Label(), p.Similarity)
		cmd.Printf("      %s\n", snippet(p.Text, 200))
		cmd.Println()
	}
}

// snippet shortens text to at most n runes on one line.
func snippet(text string, n int) string {
	r := []rune(text)
	for i, c := range r {
		if c == '\n' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
