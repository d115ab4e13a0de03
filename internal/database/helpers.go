package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thenoetrevino/crmboard/internal/events"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// withTx executes a function within a database transaction.
// It automatically handles begin, rollback on error, and commit on success.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// publishAttempts bounds retries of a change event while the client queue is full
const publishAttempts = 3

// sendEvent announces a durable change if a client is available.
// Errors are logged but not returned (fire-and-forget pattern).
func sendEvent(ctx context.Context, eventClient events.EventPublisher, boardID types.BoardID, itemID types.ItemID) {
	if err := events.PublishBoardChange(ctx, eventClient, boardID, itemID, publishAttempts); err != nil {
		slog.Debug("board change not published", "board_id", boardID, "item_id", itemID, "error", err)
	}
}

// nullUnixToPtr converts a nullable unix timestamp to *time.Time in UTC
func nullUnixToPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

// ptrToNullUnix is the inverse of nullUnixToPtr
func ptrToNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// clamp limits v to [lo, hi]
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
