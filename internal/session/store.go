package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/bacrevise/internal/clock"
	"github.com/goodtune/bacrevise/internal/curriculum"
	"github.com/goodtune/bacrevise/internal/metrics"
	"github.com/goodtune/bacrevise/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store owns the single revision timer. While a session is active a ticker
// goroutine recomputes its duration from the wall clock and mirrors the
// record to storage.KeyRevisionSession. Before each write the stored record
// is read back: a session ended or replaced elsewhere is adopted rather
// than overwritten.
type Store struct {
	kv            storage.Store
	clock         clock.Clock
	tickInterval  time.Duration
	targetMinutes int
	state         RevisionSession
	logger        zerolog.Logger
	mu            sync.RWMutex

	// stop and done belong to the running ticker goroutine, nil when idle.
	stop chan struct{}
	done chan struct{}
}

// Config holds session store configuration
type Config struct {
	Clock         clock.Clock
	TickInterval  time.Duration
	TargetMinutes int
}

// New loads the persisted record from kv. An active record resumes: its
// duration is recomputed from the stored start time and the ticker restarts.
// A missing or corrupt record leaves the store idle.
func New(ctx context.Context, kv storage.Store, config Config, logger zerolog.Logger) *Store {
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.TargetMinutes <= 0 {
		config.TargetMinutes = DefaultTargetMinutes
	}

	s := &Store{
		kv:            kv,
		clock:         config.Clock,
		tickInterval:  config.TickInterval,
		targetMinutes: config.TargetMinutes,
		state:         Idle(),
		logger:        logger.With().Str("component", "session").Logger(),
	}

	loaded, ok := s.load(ctx)
	if !ok || !loaded.Active {
		return s
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = loaded
	s.state.Duration = elapsedSeconds(*loaded.StartTime, s.clock.Now())
	s.startTickerLocked()
	metrics.SessionActive.Set(1)

	s.logger.Info().
		Str("session_id", s.state.ID).
		Str("subject", string(s.state.Subject)).
		Int64("elapsed_seconds", s.state.Duration).
		Msg("Resumed revision session")

	return s
}

func (s *Store) load(ctx context.Context) (RevisionSession, bool) {
	data, err := s.kv.Get(ctx, storage.KeyRevisionSession)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RevisionSession{}, false
		}
		s.logger.Warn().Err(err).Msg("Failed to read stored session, starting idle")
		metrics.StateResetsTotal.WithLabelValues(storage.KeyRevisionSession, "read_error").Inc()
		return RevisionSession{}, false
	}

	var rs RevisionSession
	if err := json.Unmarshal(data, &rs); err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Stored session is corrupt, starting idle")
		metrics.StateResetsTotal.WithLabelValues(storage.KeyRevisionSession, "corrupt").Inc()
		return RevisionSession{}, false
	}
	if rs.Active && rs.StartTime == nil {
		s.logger.Warn().Msg("Stored session is active without a start time, starting idle")
		metrics.StateResetsTotal.WithLabelValues(storage.KeyRevisionSession, "corrupt").Inc()
		return RevisionSession{}, false
	}
	return rs, true
}

// StartSession replaces any running session with a new one focused on
// subject. Subject may be one of the three subjects or curriculum.All.
func (s *Store) StartSession(ctx context.Context, subject curriculum.Subject, goal string) (RevisionSession, error) {
	if !subject.ValidFocus() {
		return RevisionSession{}, fmt.Errorf("%w: %q", curriculum.ErrUnknownSubject, subject)
	}

	s.mu.Lock()
	previous := s.state
	done := s.stopTickerLocked()

	now := s.clock.Now()
	s.state = RevisionSession{
		ID:        uuid.NewString(),
		Active:    true,
		StartTime: &now,
		Goal:      goal,
		Subject:   subject,
	}
	s.startTickerLocked()
	err := s.save(ctx)
	snapshot := s.state.clone()
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	metrics.SessionsStartedTotal.WithLabelValues(string(subject)).Inc()
	metrics.SessionActive.Set(1)

	event := s.logger.Info().
		Str("session_id", snapshot.ID).
		Str("subject", string(subject)).
		Str("goal", goal)
	if previous.Active {
		event = event.Str("replaced_session_id", previous.ID)
	}
	event.Msg("Started revision session")

	return snapshot, err
}

// EndSession stops the timer and returns the record as it stood at the
// moment of stopping. Ending an idle store, or one whose session was
// already ended by another process, returns the idle record.
func (s *Store) EndSession(ctx context.Context) (RevisionSession, error) {
	s.mu.Lock()
	s.syncLocked(ctx)
	done := s.stopTickerLocked()

	final := s.state.clone()
	if final.Active {
		final.Duration = elapsedSeconds(*final.StartTime, s.clock.Now())
	}

	s.state = Idle()
	err := s.save(ctx)
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	if final.Active {
		metrics.SessionActive.Set(0)
		metrics.SessionDuration.Observe(float64(final.Duration))

		s.logger.Info().
			Str("session_id", final.ID).
			Str("subject", string(final.Subject)).
			Int64("elapsed_seconds", final.Duration).
			Msg("Ended revision session")
	}

	return final, err
}

// ElapsedTime returns the duration in seconds as of the last tick.
func (s *Store) ElapsedTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Duration
}

// RemainingTime returns the seconds left before targetMinutes is reached.
// An idle store reports the full target. A non-positive target selects
// the configured default. The timer never stops on its own.
func (s *Store) RemainingTime(targetMinutes int) int64 {
	if targetMinutes <= 0 {
		targetMinutes = s.targetMinutes
	}
	target := int64(targetMinutes) * 60

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.state.Active {
		return target
	}
	if remaining := target - s.state.Duration; remaining > 0 {
		return remaining
	}
	return 0
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() RevisionSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// TargetMinutes returns the configured default target.
func (s *Store) TargetMinutes() int {
	return s.targetMinutes
}

// Close stops the ticker and waits for it to exit. The persisted record is
// left as is so a later store resumes the session.
func (s *Store) Close() error {
	s.mu.Lock()
	done := s.stopTickerLocked()
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// startTickerLocked launches the tick goroutine (must be called with lock held)
func (s *Store) startTickerLocked() {
	ticker := s.clock.NewTicker(s.tickInterval)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(ticker, s.stop, s.done)
}

// stopTickerLocked signals the tick goroutine to exit and returns the
// channel closed once it has (must be called with lock held). Callers wait
// on it after releasing the lock.
func (s *Store) stopTickerLocked() chan struct{} {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	done := s.done
	s.stop = nil
	s.done = nil
	return done
}

func (s *Store) run(ticker clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C():
			s.tick(stop, now)
		}
	}
}

// tick recomputes the duration and persists the record. A tick that lost
// the race with a stop is dropped.
func (s *Store) tick(stop <-chan struct{}, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-stop:
		return
	default:
	}

	if !s.state.Active || s.state.StartTime == nil {
		return
	}

	ctx := context.Background()
	if !s.syncLocked(ctx) {
		// The goroutine exits on its next select; nobody waits on done.
		s.stopTickerLocked()
		return
	}

	s.state.Duration = elapsedSeconds(*s.state.StartTime, s.clock.Now())

	if err := s.save(ctx); err != nil {
		return
	}

	s.logger.Debug().
		Str("session_id", s.state.ID).
		Int64("elapsed_seconds", s.state.Duration).
		Time("tick", now).
		Msg("Session tick")
}

// syncLocked adopts the stored record when another process ended or
// replaced the running session, and reports whether a session is still
// active (must be called with lock held). A missing, unreadable or corrupt
// record leaves the in-memory state alone.
func (s *Store) syncLocked(ctx context.Context) bool {
	if !s.state.Active {
		return false
	}

	data, err := storage.Fresh(ctx, s.kv, storage.KeyRevisionSession)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to re-read stored session")
		}
		return true
	}
	var stored RevisionSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return true
	}

	switch {
	case !stored.Active:
		s.logger.Info().
			Str("session_id", s.state.ID).
			Msg("Session ended by another process")
		s.state = Idle()
		metrics.SessionActive.Set(0)
		return false
	case stored.ID != s.state.ID && stored.StartTime != nil:
		s.logger.Info().
			Str("session_id", stored.ID).
			Str("replaced_session_id", s.state.ID).
			Msg("Session replaced by another process")
		s.state = stored.clone()
	}
	return true
}

// save overwrites the persisted record (must be called with lock held)
func (s *Store) save(ctx context.Context) error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyRevisionSession, data); err != nil {
		metrics.PersistErrorsTotal.WithLabelValues(storage.KeyRevisionSession).Inc()
		s.logger.Error().Err(err).Str("session_id", s.state.ID).Msg("Failed to persist session")
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
