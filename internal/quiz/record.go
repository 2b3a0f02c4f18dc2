package quiz

import (
	"context"
	"fmt"

	"github.com/goodtune/bacrevise/internal/curriculum"
)

// Recorder receives finished attempts. progress.Store satisfies it.
type Recorder interface {
	UpdateQuizProgress(ctx context.Context, subject curriculum.Subject, quizID string, score int, completed bool) error
}

// Record stores the attempt's percentage as the quiz score.
func Record(ctx context.Context, r Recorder, subject curriculum.Subject, quizID string, res Result) error {
	if err := r.UpdateQuizProgress(ctx, subject, quizID, res.Percentage, true); err != nil {
		return fmt.Errorf("record quiz %s: %w", quizID, err)
	}
	return nil
}
