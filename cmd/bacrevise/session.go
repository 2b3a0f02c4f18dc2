package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/goodtune/bacrevise/internal/metrics"
	"github.com/goodtune/bacrevise/internal/session"
	"github.com/spf13/cobra"
)

var (
	sessionTarget int
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run the revision timer",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start SUBJECT [GOAL...]",
	Short: "Start a revision session, replacing any running one",
	Long: `Start a revision session focused on one subject, or "all". The timer keeps
running between invocations until "session stop".`,
	Example: `  bacrevise session start economie Fiches chapitre 3
  bacrevise session start all`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionStart,
}

var sessionStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the revision session and add its time to the total",
	Args:  cobra.NoArgs,
	RunE:  runSessionStop,
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running session",
	Args:  cobra.NoArgs,
	RunE:  runSessionStatus,
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Display the running session live until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runSessionWatch,
}

func init() {
	for _, c := range []*cobra.Command{sessionStatusCmd, sessionWatchCmd} {
		c.Flags().IntVar(&sessionTarget, "target", 0, "Target length in minutes (default session.target_minutes)")
	}

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionStopCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionWatchCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	subject, err := curriculum.ParseFocus(args[0])
	if err != nil {
		return err
	}
	goal := strings.Join(args[1:], " ")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	previous := a.sessions.Snapshot()
	rs, err := a.sessions.StartSession(cmd.Context(), subject, goal)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if previous.Active {
		fmt.Fprintf(out, "Replaced running session (%s elapsed, not counted)\n", formatSeconds(previous.Duration))
	}
	fmt.Fprintf(out, "Started %s session", rs.Subject.DisplayName())
	if goal != "" {
		fmt.Fprintf(out, ": %s", goal)
	}
	fmt.Fprintf(out, "\nTarget: %d min\n", a.sessions.TargetMinutes())
	return nil
}

func runSessionStop(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	final, err := a.sessions.EndSession(cmd.Context())
	if err != nil {
		return err
	}
	if !final.Active {
		fmt.Fprintln(out, "No session running")
		return nil
	}

	if err := a.progress.UpdateTimeSpent(cmd.Context(), final.Duration); err != nil {
		return err
	}

	fmt.Fprintf(out, "Stopped %s session after %s\n", final.Subject.DisplayName(), formatSeconds(final.Duration))
	fmt.Fprintf(out, "Total revision time: %s\n", formatSeconds(a.progress.TotalTimeSpent()))
	return nil
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	printSessionStatus(cmd, a.sessions.Snapshot(), a.sessions.RemainingTime(sessionTarget))
	return nil
}

func printSessionStatus(cmd *cobra.Command, rs session.RevisionSession, remaining int64) {
	out := cmd.OutOrStdout()
	if !rs.Active {
		fmt.Fprintln(out, "No session running")
		return
	}

	fmt.Fprintf(out, "Subject:   %s\n", rs.Subject.DisplayName())
	if rs.Goal != "" {
		fmt.Fprintf(out, "Goal:      %s\n", rs.Goal)
	}
	fmt.Fprintf(out, "Started:   %s\n", rs.StartTime.Local().Format("15:04:05"))
	fmt.Fprintf(out, "Elapsed:   %s\n", formatSeconds(rs.Duration))
	if remaining > 0 {
		fmt.Fprintf(out, "Remaining: %s\n", formatSeconds(remaining))
	} else {
		_, _ = color.New(color.FgGreen, color.Bold).Fprintln(out, "Target reached, time for a break")
	}
}

func runSessionWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Metrics.Enabled {
		addr := fmt.Sprintf("%s:%d", a.cfg.Metrics.BindAddress, a.cfg.Metrics.Port)
		metricsServer := metrics.NewServer(addr, a.logger)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				a.logger.Error().Err(err).Msg("Error stopping metrics server")
			}
		}()
	}

	if !a.sessions.Snapshot().Active {
		fmt.Fprintln(cmd.OutOrStdout(), "No session running")
		return nil
	}

	out := cmd.OutOrStdout()
	ticker := time.NewTicker(a.cfg.Session.TickDuration())
	defer ticker.Stop()

	announced := false
	for {
		rs := a.sessions.Snapshot()
		if !rs.Active {
			fmt.Fprintln(out)
			return nil
		}
		remaining := a.sessions.RemainingTime(sessionTarget)
		fmt.Fprintf(out, "\r%s  elapsed %s  remaining %s ", rs.Subject.DisplayName(), formatSeconds(rs.Duration), formatSeconds(remaining))
		if remaining == 0 && !announced {
			_, _ = color.New(color.FgGreen, color.Bold).Fprint(out, "\nTarget reached, time for a break\n")
			announced = true
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case <-ticker.C:
		}
	}
}
