// Package config loads server settings from the environment. A .env file in
// the working directory, if present, is read first; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int

	DBDriver       string // "sqlite" or "postgres"
	DBDSN          string
	DBMaxOpenConns int

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel  slog.Level
	LogFormat string // "text" or "json"

	CORSAllowedOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads the configuration and validates it. Every problem found is
// reported in the returned error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromLookup(os.Getenv)
}

// fromLookup builds a Config from getenv. Split from Load for tests.
func fromLookup(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}

	cfg := Config{
		Port:               e.integer("PORT", 8080),
		DBDriver:           strings.ToLower(e.str("DB_DRIVER", "sqlite")),
		DBDSN:              e.str("DB_DSN", "data/conduit.db"),
		DBMaxOpenConns:     e.integer("DB_MAX_OPEN_CONNS", 10),
		JWTSecret:          e.str("JWT_SECRET", ""),
		TokenTTL:           e.duration("TOKEN_TTL", 2*time.Hour),
		LogLevel:           e.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat:          strings.ToLower(e.str("LOG_FORMAT", "text")),
		CORSAllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:        e.duration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       e.duration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        e.duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}

	if err := errors.Join(append(e.errs, cfg.validate())...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}
	if c.DBMaxOpenConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be positive"))
	}
	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(c.JWTSecret) < 16:
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger described by the config.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// env collects parse errors so Load can report all of them at once.
type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, fallback string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e *env) integer(key string, fallback int) int {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func (e *env) level(key string, fallback slog.Level) slog.Level {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid level %q", key, v))
		return fallback
	}
	return l
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
