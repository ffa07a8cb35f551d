package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question",
	Long: `Answers a question about the indexed courses.

The model may search the course material once before answering; sources are
listed below the answer when it did. Pass --session with the printed session
ID to ask a follow-up that sees the previous exchanges.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "continue an existing session")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errAnswerNotConfigured
	}

	question := strings.Join(args, " ")
	answer, err := answerService.Answer(commandContext(cmd), question, askSession)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	printAnswer(cmd, answer)
	cmd.Printf("\nSession: %s\n", answer.SessionID)
	return nil
}

// printAnswer writes the answer text followed by its sources.
func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, src := range answer.Sources {
		if src.Link != "" {
			cmd.Printf("  - %s (%s)\n", src.Label(), src.Link)
			continue
		}
		cmd.Printf("  - %s\n", src.Label())
	}
}
