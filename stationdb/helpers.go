package stationdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	"railbook.dev/railbook/internal/appconf"
	"railbook.dev/railbook/internal/logging"
)

//go:embed schema.sql
var ddl string

// createDB opens the SQLite database and brings its schema up to date
func createDB(config Config, logger *slog.Logger) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must use in-memory storage, got path: %s", config.DBPath)
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, err
	}

	// Pool settings first so that :memory: keeps a single connection (and a single database)
	configureConnectionPool(db, config)

	ctx := context.Background()
	if err := configureSQLitePerformance(ctx, db, config, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error configuring SQLite: %w", err)
	}

	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

type pragma struct {
	name        string
	description string
}

func configureSQLitePerformance(ctx context.Context, db *sql.DB, config Config, logger *slog.Logger) error {
	pragmas := []pragma{
		// Wait for a competing writer instead of failing immediately
		{"PRAGMA busy_timeout=5000", "Set busy timeout to 5s"},
		{"PRAGMA synchronous=NORMAL", "Set synchronous mode"},
	}
	if config.DBPath != ":memory:" {
		pragmas = append(pragmas, pragma{"PRAGMA journal_mode=WAL", "Enable write-ahead logging"})
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.name); err != nil {
			logging.LogError(logger, fmt.Sprintf("Failed to set %s", p.description), err)
			return fmt.Errorf("failed to execute %s: %w", p.name, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if config.verbose {
		logging.LogOperation(logger, "sqlite_settings_applied",
			slog.Int("pragma_count", len(pragmas)))
	}

	return nil
}

// configureConnectionPool sets up appropriate connection pool settings for SQLite.
func configureConnectionPool(db *sql.DB, config Config) {
	// For :memory: databases, use only 1 connection since each connection
	// gets its own separate in-memory database
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}

	// Writes are serialized by the store; a small pool covers readers and the stats collector
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
}
