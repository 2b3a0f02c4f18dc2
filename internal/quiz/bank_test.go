package quiz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBankFile(t *testing.T) {
	bank, err := LoadBankFile(filepath.Join("testdata", "bank.yaml"))
	require.NoError(t, err)
	require.Equal(t, 3, bank.Len())

	q, err := bank.Get("eco-marche")
	require.NoError(t, err)
	assert.Equal(t, curriculum.Economie, q.Subject)
	assert.Equal(t, "eco-1", q.Chapter)
	require.Len(t, q.Questions, 3)
	assert.Equal(t, 2, q.Questions[2].Correct)
	assert.NotEmpty(t, q.Questions[0].Explanation)

	sp, err := bank.Get("sp-vote")
	require.NoError(t, err)
	assert.Equal(t, curriculum.SciencePolitique, sp.Subject, "subject aliases are normalized")

	assert.Len(t, bank.BySubject(curriculum.Sociologie), 1)
	assert.Empty(t, bank.BySubject(curriculum.All))

	ids := []string{}
	for _, q := range bank.List() {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"eco-marche", "socio-socialisation", "sp-vote"}, ids)
}

func TestLoadBankFileMissing(t *testing.T) {
	_, err := LoadBankFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetUnknownQuiz(t *testing.T) {
	bank, err := NewBank(nil)
	require.NoError(t, err)

	_, err = bank.Get("nope")
	require.ErrorIs(t, err, ErrUnknownQuiz)
}

func TestLoadBankEmptyDocument(t *testing.T) {
	bank, err := LoadBank(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, bank.Len())
}

func TestLoadBankRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		invalid bool
		message string
	}{
		{
			name: "duplicate id",
			body: `
quizzes:
  - {id: a, subject: economie, questions: [{prompt: p, options: [x, y], correct: 0}]}
  - {id: a, subject: sociologie, questions: [{prompt: p, options: [x, y], correct: 1}]}
`,
			invalid: true,
			message: "duplicate id",
		},
		{
			name: "correct out of range",
			body: `
quizzes:
  - {id: a, subject: economie, questions: [{prompt: p, options: [x, y], correct: 2}]}
`,
			invalid: true,
			message: "correct index 2 out of range",
		},
		{
			name: "negative correct",
			body: `
quizzes:
  - {id: a, subject: economie, questions: [{prompt: p, options: [x, y], correct: -1}]}
`,
			invalid: true,
			message: "out of range",
		},
		{
			name: "single option",
			body: `
quizzes:
  - {id: a, subject: economie, questions: [{prompt: p, options: [x], correct: 0}]}
`,
			invalid: true,
			message: "at least 2 options",
		},
		{
			name:    "no questions",
			body:    "quizzes:\n  - {id: a, subject: economie}\n",
			invalid: true,
			message: "no questions",
		},
		{
			name: "missing id",
			body: `
quizzes:
  - {subject: economie, questions: [{prompt: p, options: [x, y], correct: 0}]}
`,
			invalid: true,
			message: "missing id",
		},
		{
			name: "all is not a progress subject",
			body: `
quizzes:
  - {id: a, subject: all, questions: [{prompt: p, options: [x, y], correct: 0}]}
`,
			invalid: true,
			message: "not a progress subject",
		},
		{
			name:    "unknown subject",
			body:    "quizzes:\n  - {id: a, subject: histoire}\n",
			message: "unknown subject",
		},
		{
			name:    "unknown field",
			body:    "quizzes:\n  - {id: a, subject: economie, difficulty: hard}\n",
			message: "difficulty",
		},
		{
			name:    "malformed yaml",
			body:    "quizzes: [",
			message: "decode quiz bank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBank(strings.NewReader(tt.body))
			require.Error(t, err)
			if tt.invalid {
				require.ErrorIs(t, err, ErrInvalidBank)
			}
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestNewBankReportsEveryProblem(t *testing.T) {
	_, err := NewBank([]Quiz{
		{ID: "a", Subject: curriculum.Economie},
		{ID: "b", Subject: "", Questions: []Question{{Prompt: "", Options: []string{"x", "y"}}}},
	})
	require.ErrorIs(t, err, ErrInvalidBank)
	msg := err.Error()
	assert.Contains(t, msg, `quiz "a": no questions`)
	assert.Contains(t, msg, `quiz "b": subject`)
	assert.Contains(t, msg, `quiz "b" question 1: empty prompt`)
}
