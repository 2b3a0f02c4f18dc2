package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/goodtune/bacrevise/internal/progress"
	"github.com/goodtune/bacrevise/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	subject   curriculum.Subject
	quizID    string
	score     int
	completed bool
}

type fakeRecorder struct {
	calls []call
	err   error
}

func (f *fakeRecorder) UpdateQuizProgress(ctx context.Context, subject curriculum.Subject, quizID string, score int, completed bool) error {
	f.calls = append(f.calls, call{subject, quizID, score, completed})
	return f.err
}

func TestRecordForwardsPercentage(t *testing.T) {
	rec := &fakeRecorder{}
	res := Score(sampleQuestions(), []int{0, 2, 0})

	require.NoError(t, Record(context.Background(), rec, curriculum.Economie, "eco-test", res))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, call{curriculum.Economie, "eco-test", 67, true}, rec.calls[0])
}

func TestRecordWrapsError(t *testing.T) {
	boom := errors.New("boom")
	rec := &fakeRecorder{err: boom}

	err := Record(context.Background(), rec, curriculum.Sociologie, "q", Result{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "record quiz q")
}

func TestRecordIntoProgressStore(t *testing.T) {
	ctx := context.Background()
	store := progress.New(ctx, memory.New(), progress.Config{}, zerolog.Nop())

	require.NoError(t, Record(ctx, store, curriculum.Economie, "eco-test", Score(sampleQuestions(), []int{0, 0, 0})))
	require.NoError(t, Record(ctx, store, curriculum.Economie, "eco-test", Score(sampleQuestions(), []int{0, 2, 1})))
	require.NoError(t, Record(ctx, store, curriculum.Economie, "eco-test", Score(sampleQuestions(), []int{1, 0, 0})))

	q, ok := store.Quiz(curriculum.Economie, "eco-test")
	require.True(t, ok)
	assert.Equal(t, 100, q.Score, "best attempt kept")
	assert.Equal(t, 3, q.Attempts)
	assert.True(t, q.Completed)
}
