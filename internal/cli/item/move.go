package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/crmboard/internal/cli"
	"github.com/thenoetrevino/crmboard/internal/cli/handler"
	"github.com/thenoetrevino/crmboard/internal/database"
	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/services/board"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// MoveCmd returns the item move subcommand
func MoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move an item to a column",
		Long: `Move a deal or task to a column by name or ID, optionally at an index.

Without --index the item goes to the end of the column. The index counts
the column's items with the moved item left out.

Examples:
  # Move to the end of a column (name is case-insensitive)
  crmboard item move --id 7f3c... --column won

  # Move to the top of a column
  crmboard item move --id 7f3c... --column "In Progress" --index 0

  # Next or previous column
  crmboard item move --id 7f3c... --column next

  # JSON output for agents
  crmboard item move --id 7f3c... --column won --json
`,
		RunE: handler.Command(handler.HandlerFunc(runMove)),
	}

	// Required flags
	cmd.Flags().String("id", "", "Item ID (required)")
	if err := cmd.MarkFlagRequired("id"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}
	cmd.Flags().String("column", "", "Target column name or ID, or next/prev (required)")
	if err := cmd.MarkFlagRequired("column"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	cmd.Flags().Int("index", 0, "Index in the target column (default: end)")
	handler.AddBoardFlag(cmd)
	handler.AddOutputFlags(cmd, false)

	return cmd
}

// failureNotices keeps the error notices of one session
type failureNotices struct {
	mu  sync.Mutex
	err error
}

func (f *failureNotices) Notify(n board.Notice) {
	if n.Level != board.NoticeError {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = n.Err
	}
}

func (f *failureNotices) first() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func runMove(ctx context.Context, args *handler.Arguments) (any, error) {
	parser := handler.NewFlagParser(args.GetCmd())

	idFlag, err := parser.ParseString("id")
	if err != nil {
		return nil, err
	}
	target, err := parser.ParseString("column")
	if err != nil {
		return nil, err
	}
	index, hasIndex, err := parser.ParseIndex("index")
	if err != nil {
		return nil, err
	}
	itemID := types.ItemID(idFlag)

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialization error: %w", err)
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	boardID := types.BoardID(args.GetString("board", ""))
	if boardID == "" {
		boardID, err = cliInstance.App.Repo.ItemBoard(ctx, itemID)
		if errors.Is(err, database.ErrItemNotFound) {
			return nil, cli.WithExitCode(cli.ExitNotFound, fmt.Errorf("item '%s' not found", itemID))
		}
		if err != nil {
			return nil, err
		}
	}

	failures := &failureNotices{}
	session, err := cliInstance.App.OpenBoard(ctx, boardID, failures)
	if errors.Is(err, database.ErrBoardNotFound) {
		return nil, cli.WithExitCode(cli.ExitNotFound, fmt.Errorf("board '%s' not found", boardID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open board: %w", err)
	}

	result, moveErr := move(session, itemID, target, index, hasIndex)

	// Close waits for the write to settle
	if err := session.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to save move: %w", err)
	}
	if moveErr != nil {
		return nil, moveErr
	}
	if err := failures.first(); err != nil {
		if errors.Is(err, board.ErrRejected) {
			return nil, cli.WithExitCode(cli.ExitValidation, fmt.Errorf("move rejected: %w", err))
		}
		return nil, fmt.Errorf("move not saved: %w", err)
	}
	return result, nil
}

// move commits the move on an open session
func move(svc board.Service, itemID types.ItemID, target string, index int, hasIndex bool) (cli.MoveResult, error) {
	snap := svc.Snapshot()
	columns := snap.Columns()

	sourceID, _, ok := snap.Locate(itemID)
	if !ok {
		return cli.MoveResult{}, cli.WithExitCode(cli.ExitNotFound, fmt.Errorf("item '%s' not found on board '%s'", itemID, svc.BoardID()))
	}

	targetCol, err := resolveColumn(snap, sourceID, target)
	if err != nil {
		return cli.MoveResult{}, err
	}

	if !hasIndex {
		index = len(snap.Column(targetCol))
		if targetCol == sourceID {
			index--
		}
	}

	commit, err := svc.MoveToColumn(itemID, targetCol, index)
	if err != nil {
		return cli.MoveResult{}, fmt.Errorf("failed to move item: %w", err)
	}

	result := cli.MoveResult{
		ItemID:       itemID,
		TransitionID: commit.TransitionID,
		FromColumn:   cli.GetCurrentColumnName(columns, sourceID),
		ToColumn:     cli.GetCurrentColumnName(columns, targetCol),
		Moved:        !commit.NoOp(),
	}
	if moved, ok := commit.Transition.Moved(); ok {
		result.Position = moved.Position
	} else if _, pos, ok := svc.Snapshot().Locate(itemID); ok {
		result.Position = pos
	}
	return result, nil
}

// resolveColumn maps next, prev, a column name or a column ID to a column
func resolveColumn(snap kanban.Snapshot, current types.ColumnID, target string) (types.ColumnID, error) {
	columns := snap.Columns()

	offset := 0
	switch strings.ToLower(target) {
	case "next":
		offset = 1
	case "prev":
		offset = -1
	}
	if offset != 0 {
		for i, col := range columns {
			if col.ID != current {
				continue
			}
			j := i + offset
			if j < 0 || j >= len(columns) {
				return "", cli.WithExitCode(cli.ExitValidation,
					fmt.Errorf("item is already in the %s column (%s)", edgeName(offset), col.Name))
			}
			return columns[j].ID, nil
		}
	}

	col, err := cli.FindColumnByName(columns, target)
	if err != nil {
		return "", cli.WithSuggestion(cli.ExitNotFound, err,
			fmt.Sprintf("Item is currently in: %s\nAvailable columns: %s",
				cli.GetCurrentColumnName(columns, current), cli.FormatAvailableColumns(columns)))
	}
	return col.ID, nil
}

func edgeName(offset int) string {
	if offset > 0 {
		return "last"
	}
	return "first"
}
