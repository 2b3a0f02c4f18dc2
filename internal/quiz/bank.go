package quiz

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goodtune/bacrevise/internal/curriculum"
	"gopkg.in/yaml.v3"
)

// Bank is a validated collection of quizzes, looked up by id.
type Bank struct {
	quizzes []Quiz
	index   map[string]int
}

type bankFile struct {
	Quizzes []Quiz `yaml:"quizzes"`
}

// LoadBankFile reads a YAML quiz bank from path.
func LoadBankFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quiz bank: %w", err)
	}
	defer f.Close()

	bank, err := LoadBank(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bank, nil
}

// LoadBank decodes and validates a YAML quiz bank. Unknown fields are
// rejected.
func LoadBank(r io.Reader) (*Bank, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file bankFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode quiz bank: %w", err)
	}
	return NewBank(file.Quizzes)
}

// NewBank validates quizzes and indexes them by id. Every problem found is
// reported, joined under ErrInvalidBank.
func NewBank(quizzes []Quiz) (*Bank, error) {
	var problems []error
	index := make(map[string]int, len(quizzes))

	for i, q := range quizzes {
		if q.ID == "" {
			problems = append(problems, fmt.Errorf("quiz #%d: missing id", i+1))
		} else if _, dup := index[q.ID]; dup {
			problems = append(problems, fmt.Errorf("quiz %q: duplicate id", q.ID))
		} else {
			index[q.ID] = i
		}
		problems = append(problems, validateQuiz(q)...)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBank, errors.Join(problems...))
	}
	return &Bank{quizzes: quizzes, index: index}, nil
}

func validateQuiz(q Quiz) []error {
	var problems []error
	if !q.Subject.Valid() {
		problems = append(problems, fmt.Errorf("quiz %q: subject %q is not a progress subject", q.ID, q.Subject))
	}
	if len(q.Questions) == 0 {
		problems = append(problems, fmt.Errorf("quiz %q: no questions", q.ID))
	}
	for j, question := range q.Questions {
		if question.Prompt == "" {
			problems = append(problems, fmt.Errorf("quiz %q question %d: empty prompt", q.ID, j+1))
		}
		if len(question.Options) < 2 {
			problems = append(problems, fmt.Errorf("quiz %q question %d: need at least 2 options, got %d", q.ID, j+1, len(question.Options)))
		}
		if question.Correct < 0 || question.Correct >= len(question.Options) {
			problems = append(problems, fmt.Errorf("quiz %q question %d: correct index %d out of range", q.ID, j+1, question.Correct))
		}
	}
	return problems
}

// Get returns the quiz with the given id.
func (b *Bank) Get(id string) (*Quiz, error) {
	i, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuiz, id)
	}
	return &b.quizzes[i], nil
}

// List returns every quiz in file order.
func (b *Bank) List() []Quiz {
	return append([]Quiz(nil), b.quizzes...)
}

// BySubject returns the quizzes of one subject in file order.
func (b *Bank) BySubject(subject curriculum.Subject) []Quiz {
	var out []Quiz
	for _, q := range b.quizzes {
		if q.Subject == subject {
			out = append(out, q)
		}
	}
	return out
}

// Len returns the number of quizzes.
func (b *Bank) Len() int {
	return len(b.quizzes)
}
