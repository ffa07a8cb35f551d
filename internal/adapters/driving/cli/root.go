// Package cli implements the lectern command line with cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services used by the commands. Any of them may be nil when the
// corresponding provider is not configured; commands report that.
var (
	answerService   driving.AnswerService
	searchService   driving.SearchService
	courseService   driving.CourseService
	ingestService   driving.IngestService
	sessionService  driving.SessionService
	settingsService driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Ask questions about your course transcripts",
	Long: `Lectern indexes course transcripts and answers questions about them.

Ingest a directory of transcripts, then ask questions from the command line,
in the interactive chat, or through the MCP server. The model decides whether
to search the course material or to answer from general knowledge.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each pipeline step to stderr")
}

// Services bundles the driving ports the commands use.
type Services struct {
	Answer   driving.AnswerService
	Search   driving.SearchService
	Courses  driving.CourseService
	Ingest   driving.IngestService
	Sessions driving.SessionService
	Settings driving.SettingsService
}

// SetServices sets the services used by the commands.
func SetServices(s Services) {
	answerService = s.Answer
	searchService = s.Search
	courseService = s.Courses
	ingestService = s.Ingest
	sessionService = s.Sessions
	settingsService = s.Settings
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Errors returned when a command needs a service that is not configured.
var (
	errAnswerNotConfigured   = errors.New("answering is not configured: set an LLM provider with 'lectern settings llm'")
	errSearchNotConfigured   = errors.New("search service not configured")
	errCoursesNotConfigured  = errors.New("course service not configured")
	errIngestNotConfigured   = errors.New("ingest service not configured")
	errSessionNotConfigured  = errors.New("session service not configured")
	errSettingsNotConfigured = errors.New("settings service not configured")
)

var errNoCoursesIndexed = errors.New("no courses indexed: run 'lectern ingest <dir>' first")

// commandContext returns the context of the current execution. Cobra only
// hands the root context to subcommands whose own context is nil, so a
// subcommand run twice would otherwise keep the first run's context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Root().Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
