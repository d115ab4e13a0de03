package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// publishBaseDelay is the first backoff between board change publishes
const publishBaseDelay = 50 * time.Millisecond

// PublishBoardChange announces that boardID changed, naming itemID when a
// single item moved. A full client queue is retried up to attempts times
// with exponential backoff; a closed client or a done ctx stops at once.
// A nil client is a no-op so stores work without a daemon.
func PublishBoardChange(ctx context.Context, client EventPublisher, boardID types.BoardID, itemID types.ItemID, attempts int) error {
	if client == nil {
		return nil
	}
	if attempts < 1 {
		attempts = 1
	}

	event := Event{Type: EventBoardChanged, BoardID: boardID, ItemID: itemID}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := client.SendEvent(event)
		if err == nil {
			if attempt > 0 {
				slog.Debug("board change published after retry",
					"attempt", attempt+1,
					"board_id", boardID,
					"item_id", itemID)
			}
			return nil
		}

		lastErr = err
		if errors.Is(err, ErrClientClosed) || attempt == attempts-1 {
			break
		}

		delay := publishBaseDelay * (1 << attempt)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		}
	}

	slog.Warn("board change not published",
		"attempts", attempts,
		"board_id", boardID,
		"item_id", itemID,
		"error", lastErr)
	return lastErr
}
