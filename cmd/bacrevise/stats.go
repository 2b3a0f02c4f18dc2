package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/goodtune/bacrevise/internal/progress"
	"github.com/spf13/cobra"
)

var (
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progress per subject and recent activity",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 0, "Number of recent activities to show (default progress.recent_default)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold)
	snap := a.progress.Snapshot()

	_, _ = cyan.Fprintln(out, "[progress]")
	for _, id := range curriculum.Subjects() {
		sp := snap.Subjects[id]
		fmt.Fprintf(out, "  %-18s %s %3d%%  %d/%d chapters  %d quizzes\n",
			id.DisplayName(),
			progressBar(sp.OverallProgress, 20),
			sp.OverallProgress,
			sp.CompletedChapters(),
			len(sp.ChaptersProgress),
			len(sp.QuizzesProgress),
		)
	}
	overall := a.progress.OverallProgress()
	_, _ = percentColor(overall).Fprintf(out, "  %-18s %s %3d%%\n", "Overall", progressBar(overall, 20), overall)
	fmt.Fprintf(out, "  Total revision time: %s\n", formatSeconds(snap.TotalTimeSpent))

	if rs := a.sessions.Snapshot(); rs.Active {
		fmt.Fprintf(out, "  Session running: %s, %s elapsed\n", rs.Subject.DisplayName(), formatSeconds(rs.Duration))
	}

	_, _ = cyan.Fprintln(out, "\n[recent activity]")
	recent := a.progress.RecentActivities(statsLimit)
	if len(recent) == 0 {
		fmt.Fprintln(out, "  nothing yet")
		return nil
	}
	now := time.Now()
	for _, act := range recent {
		fmt.Fprintf(out, "  %-18s %-32s %s\n",
			act.SubjectID.DisplayName(), activityLabel(act), formatWhen(act.Timestamp, now))
	}
	return nil
}

func percentColor(p int) *color.Color {
	switch {
	case p >= 75:
		return color.New(color.FgGreen, color.Bold)
	case p >= 40:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// activityLabel names the record an activity points at.
func activityLabel(act progress.Activity) string {
	if act.Type == progress.ActivityQuiz {
		return "quiz " + act.ID
	}
	return "chapter " + act.ID
}
