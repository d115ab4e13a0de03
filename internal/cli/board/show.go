package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/crmboard/internal/cli"
	"github.com/thenoetrevino/crmboard/internal/cli/handler"
	"github.com/thenoetrevino/crmboard/internal/database"
	"github.com/thenoetrevino/crmboard/internal/kanban"
)

// now is replaced in tests
var now = time.Now

// ShowCmd returns the board show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a board with its columns and items",
		Long: `Show a board column by column, optionally filtered.

Examples:
  # Show the default board
  crmboard board show

  # Render as markdown
  crmboard board show --board pipeline --markdown

  # Only overdue high priority tasks
  crmboard board show --board support --status overdue --priority high

  # JSON output for agents
  crmboard board show --board pipeline --json
`,
		RunE: handler.Command(handler.HandlerFunc(runShow)),
	}

	handler.AddBoardFlag(cmd)
	handler.AddFilterFlags(cmd)
	handler.AddOutputFlags(cmd, true)

	return cmd
}

func runShow(ctx context.Context, args *handler.Arguments) (any, error) {
	parser := handler.NewFlagParser(args.GetCmd())

	filter, err := parser.ParseFilter(now())
	if err != nil {
		return nil, err
	}

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialization error: %w", err)
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	boardID, err := parser.ParseBoardID(cliInstance.App.Config())
	if err != nil {
		return nil, err
	}

	data, err := cliInstance.App.Repo.FetchBoard(ctx, boardID)
	if errors.Is(err, database.ErrBoardNotFound) {
		return nil, cli.WithSuggestion(cli.ExitNotFound,
			fmt.Errorf("board '%s' not found", boardID),
			"Run 'crmboard board list' to see available boards")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	snap, err := kanban.NewSnapshot(data.Columns, data.Items)
	if err != nil {
		return nil, cli.WithExitCode(cli.ExitDataErr, fmt.Errorf("board '%s' is inconsistent: %w", boardID, err))
	}
	return cli.NewBoardDetail(data.Board, kanban.NewView(snap, filter)), nil
}
