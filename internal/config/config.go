package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Session  SessionConfig  `mapstructure:"session"`
	Progress ProgressConfig `mapstructure:"progress"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type      string      `mapstructure:"type"` // "sqlite", "bolt", "redis" or "memory"
	Path      string      `mapstructure:"path"`
	CacheSize int         `mapstructure:"cache_size"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SessionConfig defines revision timer settings
type SessionConfig struct {
	TickInterval  string `mapstructure:"tick_interval"`
	TargetMinutes int    `mapstructure:"target_minutes"`
}

// ProgressConfig defines progress tracking settings
type ProgressConfig struct {
	RecentDefault int `mapstructure:"recent_default"`
}

// QuizConfig defines quiz bank settings
type QuizConfig struct {
	BankPath string `mapstructure:"bank_path"`
	Shuffle  bool   `mapstructure:"shuffle"`
}

// MetricsConfig defines the Prometheus endpoint exposed by long-running commands
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BindAddress string `mapstructure:"bind_address"`
	Port        int    `mapstructure:"port"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Configure viper
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bacrevise")
	}
	v.SetEnvPrefix("BACREVISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.cache_size", 16)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 4)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	// Session defaults
	v.SetDefault("session.tick_interval", "1s")
	v.SetDefault("session.target_minutes", 25)

	// Progress defaults
	v.SetDefault("progress.recent_default", 5)

	// Quiz defaults
	v.SetDefault("quiz.bank_path", "quizzes.yaml")
	v.SetDefault("quiz.shuffle", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.bind_address", "127.0.0.1")
	v.SetDefault("metrics.port", 9464)
}

// TickDuration returns the parsed session tick interval.
func (c SessionConfig) TickDuration() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// validate validates the configuration
func validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case "sqlite", "bolt", "redis", "memory":
	case "":
		cfg.Storage.Type = "sqlite"
	default:
		return fmt.Errorf("unknown storage type: %q (must be sqlite, bolt, redis or memory)", cfg.Storage.Type)
	}

	if cfg.Storage.CacheSize < 0 {
		return fmt.Errorf("invalid storage cache_size: %d", cfg.Storage.CacheSize)
	}

	if cfg.Storage.Type == "redis" && cfg.Storage.Redis.Host == "" {
		return fmt.Errorf("storage.redis.host is required for redis storage")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging format: %q (must be json or text)", cfg.Logging.Format)
	}

	if d, err := time.ParseDuration(cfg.Session.TickInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid session tick_interval: %q", cfg.Session.TickInterval)
	}

	if cfg.Session.TargetMinutes <= 0 {
		return fmt.Errorf("invalid session target_minutes: %d", cfg.Session.TargetMinutes)
	}

	if cfg.Progress.RecentDefault <= 0 {
		return fmt.Errorf("invalid progress recent_default: %d", cfg.Progress.RecentDefault)
	}

	if cfg.Metrics.Enabled && (cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}

	return nil
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	// SetConfigFile with a missing path surfaces as an fs error rather
	// than ConfigFileNotFoundError.
	return errors.Is(err, fs.ErrNotExist)
}
