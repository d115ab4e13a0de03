// Package seed holds the command that creates the demo boards
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/crmboard/internal/cli"
	"github.com/thenoetrevino/crmboard/internal/cli/handler"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo boards",
		Long: `Create a sales pipeline and a support task board with sample items.
Boards that already exist are left alone.

Examples:
  crmboard seed
  crmboard board show --board pipeline
`,
		RunE: handler.Command(handler.HandlerFunc(runSeed)),
	}

	handler.AddOutputFlags(cmd, false)

	return cmd
}

func runSeed(ctx context.Context, args *handler.Arguments) (any, error) {
	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialization error: %w", err)
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	created, err := cliInstance.App.Repo.SeedDemo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed demo boards: %w", err)
	}
	return cli.SeedResult{Created: created}, nil
}
