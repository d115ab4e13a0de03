package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/crmboard/internal/cli"
	"github.com/thenoetrevino/crmboard/internal/cli/handler"
)

// ListCmd returns the board list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all boards",
		Long: `List every board in the store.

Examples:
  # Human-readable output
  crmboard board list

  # JSON output for agents
  crmboard board list --json

  # One board ID per line
  crmboard board list --quiet
`,
		RunE: handler.Command(handler.HandlerFunc(runList)),
	}

	handler.AddOutputFlags(cmd, true)

	return cmd
}

func runList(ctx context.Context, args *handler.Arguments) (any, error) {
	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialization error: %w", err)
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	boards, err := cliInstance.App.Repo.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	list := make(cli.BoardList, 0, len(boards))
	for _, b := range boards {
		list = append(list, cli.BoardSummary{ID: b.ID, Name: b.Name, Kind: b.Kind, TenantID: b.TenantID})
	}
	return list, nil
}
