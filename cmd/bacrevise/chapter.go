package main

import (
	"fmt"

	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/goodtune/bacrevise/internal/progress"
	"github.com/spf13/cobra"
)

var (
	chapterTimeSpent int64
)

var chapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Record and inspect chapter progress",
}

var chapterVisitCmd = &cobra.Command{
	Use:   "visit SUBJECT CHAPTER",
	Short: "Record a visit to a chapter",
	Example: `  bacrevise chapter visit economie eco-1
  bacrevise chapter visit socio socio-2 --time-spent 900`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChapterUpdate(cmd, args, false)
	},
}

var chapterCompleteCmd = &cobra.Command{
	Use:   "complete SUBJECT CHAPTER",
	Short: "Mark a chapter as completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChapterUpdate(cmd, args, true)
	},
}

var chapterShowCmd = &cobra.Command{
	Use:   "show SUBJECT CHAPTER",
	Short: "Show progress for one chapter",
	Args:  cobra.ExactArgs(2),
	RunE:  runChapterShow,
}

func init() {
	for _, c := range []*cobra.Command{chapterVisitCmd, chapterCompleteCmd} {
		c.Flags().Int64Var(&chapterTimeSpent, "time-spent", -1, "Seconds spent on the chapter (replaces the stored value)")
	}

	chapterCmd.AddCommand(chapterVisitCmd)
	chapterCmd.AddCommand(chapterCompleteCmd)
	chapterCmd.AddCommand(chapterShowCmd)
	rootCmd.AddCommand(chapterCmd)
}

func runChapterUpdate(cmd *cobra.Command, args []string, complete bool) error {
	subject, err := curriculum.Parse(args[0])
	if err != nil {
		return err
	}
	chapterID := args[1]

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	update := progress.ChapterUpdate{}
	if complete {
		update.Completed = progress.Bool(true)
	}
	if chapterTimeSpent >= 0 {
		update.TimeSpent = progress.Seconds(chapterTimeSpent)
	}

	if err := a.progress.UpdateChapterProgress(cmd.Context(), subject, chapterID, update); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verb := "Visited"
	if complete {
		verb = "Completed"
	}
	fmt.Fprintf(out, "%s %s / %s\n", verb, subject.DisplayName(), chapterID)
	fmt.Fprintf(out, "%s progress: %d%%\n", subject.DisplayName(), a.progress.SubjectProgress(subject))
	return nil
}

func runChapterShow(cmd *cobra.Command, args []string) error {
	subject, err := curriculum.Parse(args[0])
	if err != nil {
		return err
	}
	chapterID := args[1]

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	ch, ok := a.progress.Chapter(subject, chapterID)
	if !ok {
		fmt.Fprintf(out, "%s / %s: not visited yet\n", subject.DisplayName(), chapterID)
		return nil
	}

	status := "in progress"
	if ch.Completed {
		status = "completed"
	}
	fmt.Fprintf(out, "%s / %s\n", subject.DisplayName(), ch.ID)
	fmt.Fprintf(out, "  status:       %s\n", status)
	fmt.Fprintf(out, "  time spent:   %s\n", formatSeconds(ch.TimeSpent))
	fmt.Fprintf(out, "  last visited: %s\n", ch.LastVisited.Local().Format("02/01/2006 15:04"))
	return nil
}
