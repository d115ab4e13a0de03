// Package database is the SQLite store behind crmboard boards
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// InitDB opens the database at path, applies connection pragmas and runs
// migrations.
func InitDB(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	closeOnErr := func(err error) (*sql.DB, error) {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing db", "error", closeErr)
		}
		return nil, err
	}

	// Single writer connection: SQLite serializes writes anyway and an
	// in-memory database only exists on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		// Required for CASCADE deletions
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		// SQLite will retry for this duration
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			slog.Error("failed to apply pragma", "pragma", p, "error", err)
			return closeOnErr(fmt.Errorf("failed to apply %q: %w", p, err))
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return closeOnErr(fmt.Errorf("database ping failed: %w", err))
	}

	if err := runMigrations(ctx, db); err != nil {
		return closeOnErr(fmt.Errorf("failed to run migrations: %w", err))
	}

	return db, nil
}
