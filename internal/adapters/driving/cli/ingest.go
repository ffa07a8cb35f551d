package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/connectors/filesystem"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

var ingestWatch bool

// transcriptExtensions are the file types picked up by --watch.
var transcriptExtensions = []string{".txt", ".md", ".html", ".htm"}

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Index a transcript file or directory",
	Long: `Parses course transcripts, splits each lesson into overlapping chunks
and indexes them for search.

A transcript that is unchanged since the last run is skipped. A changed
transcript replaces everything previously indexed for that course.

With --watch, the directory is re-ingested as files are added or changed,
and courses whose files are deleted, or whose title is edited, are removed
from the index. Subdirectories are watched too.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var removeCmd = &cobra.Command{
	Use:   "remove [course title]",
	Short: "Remove a course from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep running and re-ingest changed files")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(removeCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errIngestNotConfigured
	}
	ctx := commandContext(cmd)
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if !info.IsDir() {
		if ingestWatch {
			return errors.New("--watch requires a directory")
		}
		report, err := ingestService.IngestFile(ctx, path)
		if report != nil {
			printReport(cmd, *report)
		}
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		return nil
	}

	reports, err := ingestService.IngestDir(ctx, path)
	for _, r := range reports {
		printReport(cmd, r)
	}
	printSummary(cmd, reports)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if !ingestWatch {
		return nil
	}
	return watchDir(cmd, path, reports)
}

// watchDir re-ingests changed files until the command's context ends.
func watchDir(cmd *cobra.Command, dir string, initial []driving.IngestReport) error {
	ctx := commandContext(cmd)
	files := newCourseFiles(initial)

	watcher := filesystem.New(dir, transcriptExtensions...)
	defer watcher.Close()

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Printf("Watching %s for changes (ctrl+c to stop)\n", watcher.Root())

	for change := range changes {
		files.apply(ctx, cmd, change)
	}
	return nil
}

// courseFiles maps each watched file to the course title it last indexed,
// so deletions and title edits can be traced back to the stale course.
type courseFiles map[string]string

func newCourseFiles(reports []driving.IngestReport) courseFiles {
	files := make(courseFiles, len(reports))
	for _, r := range reports {
		if r.CourseTitle != "" {
			files[r.URI] = r.CourseTitle
		}
	}
	return files
}

func (f courseFiles) apply(ctx context.Context, cmd *cobra.Command, change filesystem.Change) {
	switch change.Type {
	case filesystem.ChangeDeleted:
		title, ok := f[change.Path]
		if !ok {
			return
		}
		delete(f, change.Path)
		f.drop(ctx, cmd, title)

	case filesystem.ChangeCreated, filesystem.ChangeUpdated:
		report, err := ingestService.IngestFile(ctx, change.Path)
		if report == nil {
			cmd.PrintErrf("ingest %s: %v\n", change.Path, err)
			return
		}
		printReport(cmd, *report)
		if report.CourseTitle == "" || report.Outcome == driving.IngestFailed {
			return
		}
		old, had := f[change.Path]
		f[change.Path] = report.CourseTitle
		if had && old != report.CourseTitle {
			f.drop(ctx, cmd, old)
		}
	}
}

// drop removes title from the index unless another watched file still
// provides it.
func (f courseFiles) drop(ctx context.Context, cmd *cobra.Command, title string) {
	for _, t := range f {
		if t == title {
			return
		}
	}
	if err := ingestService.Remove(ctx, title); err != nil && !errors.Is(err, domain.ErrNotFound) {
		cmd.PrintErrf("remove %s: %v\n", title, err)
		return
	}
	cmd.Printf("  removed   %s\n", title)
}

func printReport(cmd *cobra.Command, r driving.IngestReport) {
	if r.Outcome == driving.IngestFailed {
		cmd.Printf("  %-9s %s: %v\n", r.Outcome, r.URI, r.Err)
		return
	}
	cmd.Printf("  %-9s %s (%d lessons, %d chunks)\n", r.Outcome, r.CourseTitle, r.Lessons, r.Chunks)
}

func printSummary(cmd *cobra.Command, reports []driving.IngestReport) {
	counts := make(map[driving.IngestOutcome]int)
	for _, r := range reports {
		counts[r.Outcome]++
	}
	cmd.Printf("\n%d files: %d added, %d replaced, %d unchanged, %d failed\n",
		len(reports),
		counts[driving.IngestAdded],
		counts[driving.IngestReplaced],
		counts[driving.IngestSkipped],
		counts[driving.IngestFailed],
	)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errIngestNotConfigured
	}
	title := args[0]

	if err := ingestService.Remove(commandContext(cmd), title); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no course titled %q", title)
		}
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed course: %s\n", title)
	return nil
}
