package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Progress metrics
	ChapterUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bacrevise_chapter_updates_total",
			Help: "Total chapter progress updates",
		},
		[]string{"subject"},
	)

	ChaptersCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bacrevise_chapters_completed_total",
			Help: "Chapter updates that left the chapter completed",
		},
		[]string{"subject"},
	)

	SubjectProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bacrevise_subject_progress_percent",
			Help: "Completion percentage per subject over chapters seen",
		},
		[]string{"subject"},
	)

	TimeSpentSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bacrevise_time_spent_seconds_total",
			Help: "Revision time added to the progress total",
		},
	)

	// Quiz metrics
	QuizAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bacrevise_quiz_attempts_total",
			Help: "Total recorded quiz attempts",
		},
		[]string{"subject"},
	)

	QuizScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bacrevise_quiz_score_percent",
			Help:    "Score of each recorded quiz attempt",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"subject"},
	)

	// Session metrics
	SessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bacrevise_sessions_started_total",
			Help: "Total revision sessions started",
		},
		[]string{"subject"},
	)

	SessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bacrevise_session_duration_seconds",
			Help:    "Length of ended revision sessions",
			Buckets: []float64{60, 300, 600, 900, 1500, 1800, 3000, 3600, 5400, 7200},
		},
	)

	SessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bacrevise_session_active",
			Help: "1 while a revision session is running",
		},
	)

	// Storage metrics
	StateResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bacrevise_state_resets_total",
			Help: "Persisted records replaced by defaults because they were missing or unreadable",
		},
		[]string{"key", "reason"},
	)

	PersistErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bacrevise_persist_errors_total",
			Help: "Failed writes of persisted state",
		},
		[]string{"key"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		ChapterUpdatesTotal,
		ChaptersCompletedTotal,
		SubjectProgress,
		TimeSpentSeconds,
		QuizAttemptsTotal,
		QuizScore,
		SessionsStartedTotal,
		SessionDuration,
		SessionActive,
		StateResetsTotal,
		PersistErrorsTotal,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting metrics server")
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
