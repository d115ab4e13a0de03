package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/thenoetrevino/crmboard/internal/app"
	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/logging"
	"github.com/thenoetrevino/crmboard/internal/tui"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// drainTimeout bounds how long unsaved moves may take to persist on exit
const drainTimeout = 5 * time.Second

// Launch runs the interactive board for boardID until the user quits or ctx
// is cancelled. Moves still queued on exit are flushed before returning.
func Launch(ctx context.Context, cfg *config.Config, boardID types.BoardID) error {
	// The terminal belongs to the TUI, so logs go to the file only
	closer, err := logging.Init(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			slog.Error("error closing log file", "error", err)
		}
	}()

	application, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("error closing app", "error", err)
		}
	}()
	if !application.Live() {
		slog.Info("continuing without live updates", "reason", application.OfflineReason())
	}

	bridge := tui.NewBridge()
	session, err := application.OpenBoard(ctx, boardID, bridge)
	if err != nil {
		return fmt.Errorf("failed to open board %s: %w", boardID, err)
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := session.Close(drainCtx); err != nil {
			slog.Error("error draining board session", "board_id", boardID, "error", err)
		}
	}()

	model := tui.New(ctx, session, cfg, bridge)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running program: %w", err)
	}
	slog.Info("board closed", "board_id", boardID, "pending", session.Pending())
	return nil
}
