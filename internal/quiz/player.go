package quiz

import (
	"fmt"
	"math/rand/v2"
)

// Player steps a student through one attempt at a quiz: answer the
// current question once, move on, and read the result when done.
// A Player is not safe for concurrent use.
type Player struct {
	quiz      *Quiz
	questions []Question
	answers   []int
	current   int
	shuffle   bool
	rng       *rand.Rand
}

// NewPlayer starts an attempt. With shuffle set the questions are asked in
// a random order drawn from rng (nil uses the global source).
func NewPlayer(q *Quiz, shuffle bool, rng *rand.Rand) *Player {
	p := &Player{quiz: q, shuffle: shuffle, rng: rng}
	p.Restart()
	return p
}

// Quiz returns the quiz being played.
func (p *Player) Quiz() *Quiz {
	return p.quiz
}

// Restart discards all answers and, when shuffling, draws a fresh order.
func (p *Player) Restart() {
	if p.shuffle {
		p.questions = Shuffle(p.quiz.Questions, p.rng)
	} else {
		p.questions = append([]Question(nil), p.quiz.Questions...)
	}
	p.answers = make([]int, len(p.questions))
	for i := range p.answers {
		p.answers[i] = Unanswered
	}
	p.current = 0
}

// Len returns the number of questions in the attempt.
func (p *Player) Len() int {
	return len(p.questions)
}

// Index returns the zero-based position of the current question.
func (p *Player) Index() int {
	return p.current
}

// Done reports whether every question has been passed.
func (p *Player) Done() bool {
	return p.current >= len(p.questions)
}

// Current returns the question being asked, or false once done.
func (p *Player) Current() (Question, bool) {
	if p.Done() {
		return Question{}, false
	}
	return p.questions[p.current], true
}

// Answer selects option for the current question and reports whether it
// was correct. Each question takes exactly one answer.
func (p *Player) Answer(option int) (bool, error) {
	if p.Done() {
		return false, ErrQuizComplete
	}
	q := p.questions[p.current]
	if p.answers[p.current] != Unanswered {
		return false, ErrAlreadyAnswered
	}
	if option < 0 || option >= len(q.Options) {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrOptionOutOfRange, option, len(q.Options))
	}
	p.answers[p.current] = option
	return q.IsCorrect(option), nil
}

// Next moves past the current question once it has been answered.
func (p *Player) Next() error {
	if p.Done() {
		return ErrQuizComplete
	}
	if p.answers[p.current] == Unanswered {
		return ErrNotAnswered
	}
	p.current++
	return nil
}

// Questions returns the questions in the order they are asked.
func (p *Player) Questions() []Question {
	return append([]Question(nil), p.questions...)
}

// Result grades the attempt so far. Unanswered questions count as wrong.
func (p *Player) Result() Result {
	return Score(p.questions, p.answers)
}
