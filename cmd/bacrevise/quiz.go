package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/goodtune/bacrevise/internal/quiz"
	"github.com/spf13/cobra"
)

var (
	quizNoShuffle bool
	quizBankPath  string
)

var errQuizAbandoned = errors.New("quiz abandoned")

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take quizzes and inspect quiz results",
}

var quizListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quizzes in the bank with best scores",
	Args:  cobra.NoArgs,
	RunE:  runQuizList,
}

var quizTakeCmd = &cobra.Command{
	Use:     "take QUIZ_ID",
	Short:   "Take a quiz interactively",
	Example: `  bacrevise quiz take eco-marche --no-shuffle`,
	Args:    cobra.ExactArgs(1),
	RunE:    runQuizTake,
}

var quizShowCmd = &cobra.Command{
	Use:   "show SUBJECT QUIZ_ID",
	Short: "Show recorded results for one quiz",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuizShow,
}

func init() {
	quizCmd.PersistentFlags().StringVar(&quizBankPath, "bank", "", "Quiz bank file (overrides quiz.bank_path)")
	quizTakeCmd.Flags().BoolVar(&quizNoShuffle, "no-shuffle", false, "Ask questions in bank order")

	quizCmd.AddCommand(quizListCmd)
	quizCmd.AddCommand(quizTakeCmd)
	quizCmd.AddCommand(quizShowCmd)
	rootCmd.AddCommand(quizCmd)
}

func loadBank(a *app) (*quiz.Bank, error) {
	path := a.cfg.Quiz.BankPath
	if quizBankPath != "" {
		path = quizBankPath
	}
	bank, err := quiz.LoadBankFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("path", path).Int("quizzes", bank.Len()).Msg("Quiz bank loaded")
	return bank, nil
}

func runQuizList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	bank, err := loadBank(a)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold)
	for _, subject := range curriculum.Subjects() {
		quizzes := bank.BySubject(subject)
		if len(quizzes) == 0 {
			continue
		}
		_, _ = cyan.Fprintf(out, "\n[%s]\n", subject.DisplayName())
		for _, q := range quizzes {
			best := "-"
			if rec, ok := a.progress.Quiz(subject, q.ID); ok {
				best = fmt.Sprintf("%d%% (%d attempts)", rec.Score, rec.Attempts)
			}
			fmt.Fprintf(out, "  %-24s %-40s %2d questions  best: %s\n", q.ID, q.Title, len(q.Questions), best)
		}
	}
	return nil
}

func runQuizTake(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	bank, err := loadBank(a)
	if err != nil {
		return err
	}
	q, err := bank.Get(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	shuffle := a.cfg.Quiz.Shuffle && !quizNoShuffle
	player := quiz.NewPlayer(q, shuffle, nil)

	res, err := playQuiz(cmd.InOrStdin(), out, player)
	if err != nil {
		return err
	}

	if err := quiz.Record(cmd.Context(), a.progress, q.Subject, q.ID, res); err != nil {
		return err
	}

	rec, _ := a.progress.Quiz(q.Subject, q.ID)
	scoreColor := color.New(color.FgRed, color.Bold)
	if res.Passed() {
		scoreColor = color.New(color.FgGreen, color.Bold)
	}
	fmt.Fprintln(out)
	_, _ = scoreColor.Fprintf(out, "Score: %d/%d (%d%%)\n", res.Score, res.Total, res.Percentage)
	fmt.Fprintf(out, "Best score: %d%% after %d attempts\n", rec.Score, rec.Attempts)
	return nil
}

// playQuiz runs one attempt reading answers line by line from in.
func playQuiz(in io.Reader, out io.Writer, player *quiz.Player) (quiz.Result, error) {
	scanner := bufio.NewScanner(in)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	played := player.Quiz()
	fmt.Fprintf(out, "%s (%s), %d questions. Type the option number, or q to quit.\n",
		played.Title, played.Subject.DisplayName(), player.Len())

	for !player.Done() {
		q, _ := player.Current()
		fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", player.Index()+1, player.Len(), q.Prompt)
		for i, option := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, option)
		}

		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return quiz.Result{}, fmt.Errorf("read answer: %w", err)
				}
				return quiz.Result{}, errQuizAbandoned
			}

			line := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(line, "q") {
				return quiz.Result{}, errQuizAbandoned
			}
			choice, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintf(out, "Enter a number between 1 and %d.\n", len(q.Options))
				continue
			}

			correct, err := player.Answer(choice - 1)
			if errors.Is(err, quiz.ErrOptionOutOfRange) {
				fmt.Fprintf(out, "Enter a number between 1 and %d.\n", len(q.Options))
				continue
			}
			if err != nil {
				return quiz.Result{}, err
			}

			if correct {
				_, _ = green.Fprintln(out, "Correct!")
			} else {
				_, _ = red.Fprintf(out, "Wrong, the answer was %d) %s\n", q.Correct+1, q.Options[q.Correct])
			}
			if q.Explanation != "" {
				fmt.Fprintln(out, q.Explanation)
			}
			break
		}

		if err := player.Next(); err != nil {
			return quiz.Result{}, err
		}
	}

	return player.Result(), nil
}

func runQuizShow(cmd *cobra.Command, args []string) error {
	subject, err := curriculum.Parse(args[0])
	if err != nil {
		return err
	}
	quizID := args[1]

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	rec, ok := a.progress.Quiz(subject, quizID)
	if !ok {
		fmt.Fprintf(out, "%s / %s: never attempted\n", subject.DisplayName(), quizID)
		return nil
	}

	fmt.Fprintf(out, "%s / %s\n", subject.DisplayName(), rec.ID)
	fmt.Fprintf(out, "  best score:   %d%%\n", rec.Score)
	fmt.Fprintf(out, "  attempts:     %d\n", rec.Attempts)
	fmt.Fprintf(out, "  completed:    %t\n", rec.Completed)
	fmt.Fprintf(out, "  last attempt: %s\n", rec.LastAttempt.Local().Format("02/01/2006 15:04"))
	return nil
}
