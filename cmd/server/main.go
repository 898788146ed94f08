// Command server runs the Conduit API.
//
// Configuration comes from environment variables (optionally a .env file):
//
//	PORT                 listen port (default 8080)
//	DB_DRIVER            sqlite or postgres (default sqlite)
//	DB_DSN               database path or connection string (default data/conduit.db)
//	DB_MAX_OPEN_CONNS    connection pool size
//	JWT_SECRET           HMAC signing key, at least 16 characters (required)
//	TOKEN_TTL            token lifetime, e.g. 72h
//	LOG_LEVEL            debug, info, warn or error
//	LOG_FORMAT           text or json
//	CORS_ALLOWED_ORIGINS comma-separated origins
//	HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/config"
	"github.com/sakif/conduit/internal/repository/sqlstore"
	"github.com/sakif/conduit/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if cfg.DBDriver == sqlstore.DriverSQLite && !strings.Contains(cfg.DBDSN, ":memory:") {
		dir := filepath.Dir(cfg.DBDSN)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	store, err := sqlstore.Open(context.Background(), cfg.DBDriver, cfg.DBDSN, sqlstore.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	return server.New(cfg, logger, store, tokens).Start()
}
