package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/goodtune/bacrevise/internal/clock"
	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/goodtune/bacrevise/internal/metrics"
	"github.com/goodtune/bacrevise/internal/storage"
	"github.com/rs/zerolog"
)

// Store is the single source of truth for chapter, quiz and timing
// progress. Every mutation rewrites the whole document under
// storage.KeyUserProgress.
type Store struct {
	kv            storage.Store
	clock         clock.Clock
	recentDefault int
	state         *UserProgress
	logger        zerolog.Logger
	mu            sync.RWMutex

	// unsaved is set while the in-memory document holds changes the last
	// save failed to persist.
	unsaved bool
}

// Config holds progress store configuration
type Config struct {
	Clock         clock.Clock
	RecentDefault int
}

// New loads the persisted document from kv. A missing, unreadable or
// corrupt document is replaced by the defaults; New never fails. Each
// mutation re-reads the stored document first, so several stores over the
// same backend do not drop each other's updates.
func New(ctx context.Context, kv storage.Store, config Config, logger zerolog.Logger) *Store {
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.RecentDefault <= 0 {
		config.RecentDefault = DefaultRecentLimit
	}

	s := &Store{
		kv:            kv,
		clock:         config.Clock,
		recentDefault: config.RecentDefault,
		logger:        logger.With().Str("component", "progress").Logger(),
	}
	s.state = s.load(ctx)
	s.publishGauges()
	return s
}

func (s *Store) load(ctx context.Context) *UserProgress {
	data, err := s.kv.Get(ctx, storage.KeyUserProgress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug().Msg("No stored progress, starting fresh")
			metrics.StateResetsTotal.WithLabelValues(storage.KeyUserProgress, "missing").Inc()
		} else {
			s.logger.Warn().Err(err).Msg("Failed to read stored progress, starting fresh")
			metrics.StateResetsTotal.WithLabelValues(storage.KeyUserProgress, "read_error").Inc()
		}
		return NewUserProgress()
	}

	up, err := decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Stored progress is corrupt, starting fresh")
		metrics.StateResetsTotal.WithLabelValues(storage.KeyUserProgress, "corrupt").Inc()
		return NewUserProgress()
	}
	return up
}

// refreshLocked replaces the in-memory document with the stored one so a
// mutation lands on top of writes made by other processes (must be called
// with lock held). Unsaved local changes, a missing document or an
// unreadable one keep the in-memory copy.
func (s *Store) refreshLocked(ctx context.Context) {
	if s.unsaved {
		return
	}
	data, err := storage.Fresh(ctx, s.kv, storage.KeyUserProgress)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to re-read stored progress, keeping in-memory copy")
		}
		return
	}
	up, err := decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Stored progress is corrupt, keeping in-memory copy")
		return
	}
	s.state = up
}

func decode(data []byte) (*UserProgress, error) {
	var up UserProgress
	if err := json.Unmarshal(data, &up); err != nil {
		return nil, err
	}
	normalize(&up)
	return &up, nil
}

// normalize repairs a decoded document so the invariants hold: all three
// subjects present, maps allocated, ids filled in, percentages derived from
// chapters, activity list bounded. Unknown subject keys were already
// dropped by UserProgress.UnmarshalJSON.
func normalize(up *UserProgress) {
	if up.Subjects == nil {
		up.Subjects = make(map[curriculum.Subject]*SubjectProgress)
	}
	for _, id := range curriculum.Subjects() {
		sp := up.Subjects[id]
		if sp == nil {
			up.Subjects[id] = newSubjectProgress(id)
			continue
		}
		sp.ID = id
		if sp.ChaptersProgress == nil {
			sp.ChaptersProgress = make(map[string]ChapterProgress)
		}
		if sp.QuizzesProgress == nil {
			sp.QuizzesProgress = make(map[string]QuizProgress)
		}
		for key, ch := range sp.ChaptersProgress {
			ch.ID = key
			sp.ChaptersProgress[key] = ch
		}
		for key, q := range sp.QuizzesProgress {
			q.ID = key
			sp.QuizzesProgress[key] = q
		}
		sp.recompute()
	}
	if up.LastActivity == nil {
		up.LastActivity = []Activity{}
	}
	if len(up.LastActivity) > MaxActivities {
		up.LastActivity = up.LastActivity[:MaxActivities]
	}
	if up.TotalTimeSpent < 0 {
		up.TotalTimeSpent = 0
	}
}

// UpdateChapterProgress merges update into the chapter record, creating it
// on first visit, stamps LastVisited and recomputes the subject percentage.
func (s *Store) UpdateChapterProgress(ctx context.Context, subject curriculum.Subject, chapterID string, update ChapterUpdate) error {
	if !subject.Valid() {
		return fmt.Errorf("%w: %q", curriculum.ErrUnknownSubject, subject)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked(ctx)
	now := s.clock.Now()
	sp := s.state.Subjects[subject]

	ch, seen := sp.ChaptersProgress[chapterID]
	if !seen {
		ch = ChapterProgress{ID: chapterID}
	}
	if update.Completed != nil {
		ch.Completed = *update.Completed
	}
	if update.TimeSpent != nil {
		ch.TimeSpent = *update.TimeSpent
	}
	ch.LastVisited = now
	sp.ChaptersProgress[chapterID] = ch
	sp.recompute()

	s.pushActivity(Activity{
		Type:      ActivityChapter,
		ID:        chapterID,
		SubjectID: subject,
		Timestamp: now,
	})

	metrics.ChapterUpdatesTotal.WithLabelValues(string(subject)).Inc()
	if ch.Completed {
		metrics.ChaptersCompletedTotal.WithLabelValues(string(subject)).Inc()
	}
	metrics.SubjectProgress.WithLabelValues(string(subject)).Set(float64(sp.OverallProgress))

	s.logger.Debug().
		Str("subject", string(subject)).
		Str("chapter_id", chapterID).
		Bool("first_visit", !seen).
		Bool("completed", ch.Completed).
		Int("overall_progress", sp.OverallProgress).
		Msg("Chapter progress updated")

	return s.save(ctx)
}

// MarkChapterCompleted is UpdateChapterProgress with Completed set.
func (s *Store) MarkChapterCompleted(ctx context.Context, subject curriculum.Subject, chapterID string) error {
	return s.UpdateChapterProgress(ctx, subject, chapterID, ChapterUpdate{Completed: Bool(true)})
}

// UpdateQuizProgress records one attempt. The stored score never
// regresses and a quiz once completed stays completed.
func (s *Store) UpdateQuizProgress(ctx context.Context, subject curriculum.Subject, quizID string, score int, completed bool) error {
	if !subject.Valid() {
		return fmt.Errorf("%w: %q", curriculum.ErrUnknownSubject, subject)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked(ctx)
	now := s.clock.Now()
	sp := s.state.Subjects[subject]

	q, seen := sp.QuizzesProgress[quizID]
	if !seen {
		q = QuizProgress{ID: quizID, Score: score}
	}
	if score > q.Score {
		q.Score = score
	}
	q.Completed = q.Completed || completed
	q.Attempts++
	q.LastAttempt = now
	sp.QuizzesProgress[quizID] = q

	s.pushActivity(Activity{
		Type:      ActivityQuiz,
		ID:        quizID,
		SubjectID: subject,
		Timestamp: now,
	})

	metrics.QuizAttemptsTotal.WithLabelValues(string(subject)).Inc()
	metrics.QuizScore.WithLabelValues(string(subject)).Observe(float64(score))

	s.logger.Info().
		Str("subject", string(subject)).
		Str("quiz_id", quizID).
		Int("score", score).
		Int("best_score", q.Score).
		Int("attempts", q.Attempts).
		Msg("Quiz attempt recorded")

	return s.save(ctx)
}

// UpdateTimeSpent adds seconds to the overall revision time.
func (s *Store) UpdateTimeSpent(ctx context.Context, seconds int64) error {
	if seconds <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked(ctx)
	s.state.TotalTimeSpent += seconds
	metrics.TimeSpentSeconds.Add(float64(seconds))

	s.logger.Debug().
		Int64("seconds", seconds).
		Int64("total_seconds", s.state.TotalTimeSpent).
		Msg("Time spent updated")

	return s.save(ctx)
}

// Chapter returns the chapter record, or false if it was never visited.
func (s *Store) Chapter(subject curriculum.Subject, chapterID string) (ChapterProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.state.Subjects[subject]
	if !ok {
		return ChapterProgress{}, false
	}
	ch, ok := sp.ChaptersProgress[chapterID]
	return ch, ok
}

// Quiz returns the quiz record, or false if it was never attempted.
func (s *Store) Quiz(subject curriculum.Subject, quizID string) (QuizProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.state.Subjects[subject]
	if !ok {
		return QuizProgress{}, false
	}
	q, ok := sp.QuizzesProgress[quizID]
	return q, ok
}

// SubjectProgress returns the completion percentage of one subject.
// Unknown subjects report 0.
func (s *Store) SubjectProgress(subject curriculum.Subject) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sp, ok := s.state.Subjects[subject]; ok {
		return sp.OverallProgress
	}
	return 0
}

// OverallProgress is the rounded mean of the subject percentages, each
// subject weighted equally regardless of its chapter count.
func (s *Store) OverallProgress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := curriculum.Subjects()
	total := 0
	for _, id := range subjects {
		total += s.state.Subjects[id].OverallProgress
	}
	return percent(total, 100*len(subjects))
}

// RecentActivities returns up to limit activities, newest first. A
// non-positive limit selects the configured default.
func (s *Store) RecentActivities(limit int) []Activity {
	if limit <= 0 {
		limit = s.recentDefault
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.state.LastActivity) {
		limit = len(s.state.LastActivity)
	}
	out := make([]Activity, limit)
	copy(out, s.state.LastActivity[:limit])
	return out
}

// TotalTimeSpent returns the accumulated revision time in seconds.
func (s *Store) TotalTimeSpent() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TotalTimeSpent
}

// Snapshot returns a deep copy of the whole document.
func (s *Store) Snapshot() *UserProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Reset discards all progress and persists the defaults.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = NewUserProgress()
	s.publishGaugesLocked()
	s.logger.Info().Msg("Progress reset")

	return s.save(ctx)
}

// pushActivity prepends a and drops the oldest entries beyond
// MaxActivities (must be called with lock held)
func (s *Store) pushActivity(a Activity) {
	list := make([]Activity, 0, MaxActivities)
	list = append(list, a)
	list = append(list, s.state.LastActivity...)
	if len(list) > MaxActivities {
		list = list[:MaxActivities]
	}
	s.state.LastActivity = list
}

// save overwrites the persisted document (must be called with lock held)
func (s *Store) save(ctx context.Context) error {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.unsaved = true
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyUserProgress, data); err != nil {
		s.unsaved = true
		metrics.PersistErrorsTotal.WithLabelValues(storage.KeyUserProgress).Inc()
		s.logger.Error().Err(err).Msg("Failed to persist progress")
		return fmt.Errorf("persist progress: %w", err)
	}
	s.unsaved = false
	return nil
}

func (s *Store) publishGauges() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.publishGaugesLocked()
}

func (s *Store) publishGaugesLocked() {
	for id, sp := range s.state.Subjects {
		metrics.SubjectProgress.WithLabelValues(string(id)).Set(float64(sp.OverallProgress))
	}
}
