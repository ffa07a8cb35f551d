package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lectern/internal/adapters/driving/tui"
	"github.com/custodia-labs/lectern/internal/logger"
)

var chatSession string

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Start an interactive conversation",
	Long: `Opens the interactive chat. Each question sees the most recent exchanges
of the session, so follow-ups like "and lesson 3?" work.

When standard input is not a terminal, questions are read one per line and
answers are written to standard output.

Controls:
  Enter    - Ask
  ↑/↓      - Scroll the conversation
  Ctrl+O   - Browse courses
  Ctrl+N   - New session
  F1       - Help
  Ctrl+C   - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "continue an existing session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errAnswerNotConfigured
	}

	if !stdinIsTerminal() {
		return runLineChat(cmd, cmd.InOrStdin())
	}

	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Answer:   answerService,
		Courses:  courseService,
		Sessions: sessionService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	// Stderr lines would tear the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	app.WithContext(commandContext(cmd)).WithSession(chatSession)
	if len(args) == 1 {
		app.WithQuestion(args[0])
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runLineChat answers one question per input line until EOF.
func runLineChat(cmd *cobra.Command, in io.Reader) error {
	ctx := commandContext(cmd)
	sessionID := chatSession

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		answer, err := answerService.Answer(ctx, question, sessionID)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		sessionID = answer.SessionID

		cmd.Printf("> %s\n", question)
		printAnswer(cmd, answer)
		cmd.Println()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading questions: %w", err)
	}
	return nil
}
