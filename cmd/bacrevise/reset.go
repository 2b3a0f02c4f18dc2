package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetProgress bool
	resetSession  bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase stored progress and/or the running session",
	Long: `Erase stored state. Without flags both progress and the session are reset.
A running session is discarded without adding its time to the total.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetProgress, "progress", false, "Reset chapter and quiz progress")
	resetCmd.Flags().BoolVar(&resetSession, "session", false, "Discard the running session")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetProgress && !resetSession {
		resetProgress, resetSession = true, true
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if resetSession {
		if _, err := a.sessions.EndSession(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out, "Session reset")
	}
	if resetProgress {
		if err := a.progress.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out, "Progress reset")
	}
	return nil
}
