// Package quiz scores multiple-choice quizzes, steps a student through one
// attempt and forwards the result to progress tracking.
package quiz

import (
	"errors"

	"github.com/goodtune/bacrevise/internal/curriculum"
)

var (
	ErrUnknownQuiz      = errors.New("quiz: unknown quiz")
	ErrAlreadyAnswered  = errors.New("quiz: question already answered")
	ErrOptionOutOfRange = errors.New("quiz: option out of range")
	ErrQuizComplete     = errors.New("quiz: attempt already complete")
	ErrNotAnswered      = errors.New("quiz: current question not answered")
	ErrInvalidBank      = errors.New("quiz: invalid bank")
)

// Unanswered marks a question with no selected option in an answer sheet.
const Unanswered = -1

// Question is one multiple-choice item. Correct indexes into Options.
type Question struct {
	Prompt      string   `yaml:"prompt"`
	Options     []string `yaml:"options"`
	Correct     int      `yaml:"correct"`
	Explanation string   `yaml:"explanation,omitempty"`
}

// IsCorrect reports whether option is the right answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.Correct
}

// Quiz is an ordered set of questions attached to a subject and,
// optionally, a chapter.
type Quiz struct {
	ID        string             `yaml:"id"`
	Title     string             `yaml:"title"`
	Subject   curriculum.Subject `yaml:"subject"`
	Chapter   string             `yaml:"chapter,omitempty"`
	Questions []Question         `yaml:"questions"`
}
