package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goodtune/bacrevise/internal/config"
	"github.com/goodtune/bacrevise/internal/progress"
	"github.com/goodtune/bacrevise/internal/session"
	"github.com/goodtune/bacrevise/internal/storage"
	"github.com/goodtune/bacrevise/internal/storage/bolt"
	"github.com/goodtune/bacrevise/internal/storage/memory"
	"github.com/goodtune/bacrevise/internal/storage/redis"
	"github.com/goodtune/bacrevise/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app bundles the stores every command works against.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	kv       storage.Store
	progress *progress.Store
	sessions *session.Store
}

// openApp loads configuration, opens the storage backend and both stores.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	kv, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		kv:     kv,
	}
	a.progress = progress.New(ctx, kv, progress.Config{
		RecentDefault: cfg.Progress.RecentDefault,
	}, logger)
	a.sessions = session.New(ctx, kv, session.Config{
		TickInterval:  cfg.Session.TickDuration(),
		TargetMinutes: cfg.Session.TargetMinutes,
	}, logger)

	return a, nil
}

// Close stops the session ticker and releases the storage backend.
func (a *app) Close() {
	if err := a.sessions.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close session store")
	}
	if err := a.kv.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

// openStorage opens the configured backend behind an LRU read cache.
func openStorage(cfg config.StorageConfig, logger zerolog.Logger) (storage.Store, error) {
	var (
		backend storage.Store
		err     error
	)

	switch cfg.Type {
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = storage.DefaultDataPath("bacrevise.db")
		}
		backend, err = sqlite.Open(path)
		logger.Debug().Str("type", "sqlite").Str("path", path).Msg("Opening storage")
	case "bolt":
		path := cfg.Path
		if path == "" {
			path = storage.DefaultDataPath("bacrevise.bolt")
		}
		backend, err = bolt.Open(path)
		logger.Debug().Str("type", "bolt").Str("path", path).Msg("Opening storage")
	case "redis":
		backend, err = redis.Open(cfg.Redis)
		logger.Debug().Str("type", "redis").Str("host", cfg.Redis.Host).Int("port", cfg.Redis.Port).Msg("Opening storage")
	case "memory":
		backend = memory.New()
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize == 0 {
		return backend, nil
	}
	cached, err := storage.NewCached(backend, cfg.CacheSize)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return cached, nil
}

// setupLogger configures the logger based on configuration. Logs go to
// stderr so they never mix with command output.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.WarnLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
