package database

import (
	"context"
	"database/sql"
)

// runMigrations creates the database schema. It is safe to run repeatedly.
func runMigrations(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('deal', 'task')),
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE TABLE IF NOT EXISTS columns (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			name TEXT NOT NULL,
			display_order INTEGER NOT NULL,
			FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE,
			UNIQUE (board_id, display_order)
		)`,
		// Positions are dense per column; moves renumber inside a transaction
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			column_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('deal', 'task')),
			value TEXT NOT NULL DEFAULT '0',
			currency TEXT NOT NULL DEFAULT '',
			assignee TEXT NOT NULL DEFAULT '',
			due_at INTEGER,
			priority_id INTEGER NOT NULL DEFAULT 3,
			type_id INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'open',
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
			FOREIGN KEY (column_id) REFERENCES columns(id) ON DELETE CASCADE,
			UNIQUE (column_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_columns_board ON columns(board_id, display_order)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
