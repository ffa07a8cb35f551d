package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [session]",
	Short: "Show the exchanges remembered for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [session]",
	Short: "Forget a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errSessionNotConfigured
	}

	exchanges, err := sessionService.Exchanges(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(exchanges) == 0 {
		cmd.Println("No history for this session.")
		return nil
	}

	for i, ex := range exchanges {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("User: %s\n", ex.User)
		cmd.Printf("Assistant: %s\n", ex.Assistant)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errSessionNotConfigured
	}

	if err := sessionService.Clear(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	cmd.Printf("Cleared session: %s\n", args[0])
	return nil
}
