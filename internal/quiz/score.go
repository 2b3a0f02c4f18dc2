package quiz

// Result is the outcome of one attempt.
type Result struct {
	Score      int   // correct answers
	Total      int   // questions asked
	Answers    []int // selected option per question, Unanswered if skipped
	Percentage int   // round(100 × Score / Total)
}

// Passed reports whether at least half the answers were correct.
func (r Result) Passed() bool {
	return r.Total > 0 && 2*r.Score >= r.Total
}

// Score grades answers against questions position by position. Missing
// trailing answers count as unanswered.
func Score(questions []Question, answers []int) Result {
	res := Result{
		Total:   len(questions),
		Answers: make([]int, len(questions)),
	}
	for i, q := range questions {
		res.Answers[i] = Unanswered
		if i < len(answers) {
			res.Answers[i] = answers[i]
		}
		if res.Answers[i] != Unanswered && q.IsCorrect(res.Answers[i]) {
			res.Score++
		}
	}
	res.Percentage = Percentage(res.Score, res.Total)
	return res
}

// Percentage returns round(100 × score / total), rounding halves up. An
// empty quiz scores 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*score + total) / (2 * total)
}
