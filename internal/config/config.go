package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	SourceBackend  = "backend"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env         string      `mapstructure:"env"` // current application environment (local, dev, production)
	HTTP        HTTP        `mapstructure:"http"`
	Telegram    Telegram    `mapstructure:"telegram"`
	DB          DB          `mapstructure:"database"`
	Redis       Redis       `mapstructure:"redis"`
	Persistence Persistence `mapstructure:"persistence"`
	Questions   Questions   `mapstructure:"questions"`
	Session     Session     `mapstructure:"session"`
	Log         Log         `mapstructure:"log"`
}

// HTTP configures the JSON API server.
type HTTP struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SignalRate      float64       `mapstructure:"signal_rate"`  // integrity signals per second per client
	SignalBurst     int           `mapstructure:"signal_burst"` // burst size of the signal limiter
}

// Telegram configures the bot front end.
type Telegram struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"-"` // loaded from environment
	Debug   bool   `mapstructure:"debug"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Redis contains Redis connection parameters.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"-"` // loaded from environment
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Persistence selects the snapshot storage backend.
type Persistence struct {
	Driver string `mapstructure:"driver"` // memory, redis or postgres
}

// Questions selects where questions come from and where history goes.
type Questions struct {
	Source     string        `mapstructure:"source"` // postgres or backend
	BackendURL string        `mapstructure:"backend_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Session holds quiz session parameters.
type Session struct {
	BudgetMinutes   int           `mapstructure:"budget_minutes"`
	WarningSeconds  int           `mapstructure:"warning_seconds"`
	SnapshotTTL     time.Duration `mapstructure:"snapshot_ttl"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	JanitorSchedule string        `mapstructure:"janitor_schedule"`
}

// Budget returns the session wall-clock budget.
func (s Session) Budget() time.Duration {
	return time.Duration(s.BudgetMinutes) * time.Minute
}

// Log configures the rotating log file.
type Log struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")
	_ = v.BindEnv("persistence.driver", "PERSISTENCE_DRIVER")
	_ = v.BindEnv("questions.source", "QUESTIONS_SOURCE")
	_ = v.BindEnv("questions.backend_url", "QUESTIONS_BACKEND_URL")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.Telegram.Token = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Password = v.GetString("redis_password")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("http.signal_rate", 5)
	v.SetDefault("http.signal_burst", 10)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.debug", false)

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 50)

	v.SetDefault("persistence.driver", DriverMemory)

	v.SetDefault("questions.source", DriverPostgres)
	v.SetDefault("questions.timeout", "10s")

	v.SetDefault("session.budget_minutes", 60)
	v.SetDefault("session.warning_seconds", 3)
	v.SetDefault("session.snapshot_ttl", "24h")
	v.SetDefault("session.idle_ttl", "2h")
	v.SetDefault("session.janitor_schedule", "*/10 * * * *")

	v.SetDefault("log.file", "logs/quizzer.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
}

func (c *Config) validate() error {
	switch c.Persistence.Driver {
	case DriverMemory, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown persistence driver %q", ErrInvalidConfig, c.Persistence.Driver)
	}

	switch c.Questions.Source {
	case DriverPostgres:
	case SourceBackend:
		if c.Questions.BackendURL == "" {
			return fmt.Errorf("%w: questions.backend_url is required for the backend source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown question source %q", ErrInvalidConfig, c.Questions.Source)
	}

	if c.NeedsDatabase() && c.DB.URL == "" {
		return ErrMissingEnvironmentVariables
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return ErrMissingEnvironmentVariables
	}

	if c.Session.BudgetMinutes <= 0 {
		return fmt.Errorf("%w: session.budget_minutes must be positive", ErrInvalidConfig)
	}

	return nil
}

// NeedsDatabase reports whether any component is backed by Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.Persistence.Driver == DriverPostgres || c.Questions.Source == DriverPostgres
}
