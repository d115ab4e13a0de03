package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/crmboard/internal/cli"
	"github.com/thenoetrevino/crmboard/internal/cli/board"
	"github.com/thenoetrevino/crmboard/internal/cli/item"
	"github.com/thenoetrevino/crmboard/internal/cli/seed"
	"github.com/thenoetrevino/crmboard/internal/cli/use"
	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/launcher"
)

// NewRootCmd builds the crmboard command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crmboard",
		Short: "crmboard - drag and drop CRM boards in the terminal",
		Long: `crmboard shows deal pipelines and task boards as kanban columns.
Cards are reordered and moved between columns by dragging; every move is
saved in the background and rolled back if the store rejects it.

Run without a subcommand to open the interactive board.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	rootCmd.Flags().String("board", "", "Board ID to open (default: $"+cli.BoardEnvVar+" or config board.default)")
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return cli.WithSuggestion(cli.ExitUsage, err, fmt.Sprintf("Run '%s --help' for usage.", c.CommandPath()))
	})

	rootCmd.AddCommand(board.BoardCmd())
	rootCmd.AddCommand(item.ItemCmd())
	rootCmd.AddCommand(seed.SeedCmd())
	rootCmd.AddCommand(use.UseCmd())
	rootCmd.AddCommand(tuiCmd())

	return rootCmd
}

func tuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive board",
		Long: `Open a board in the terminal UI.

Examples:
  crmboard tui --board pipeline
  CRMBOARD_BOARD=support crmboard tui
`,
		RunE: runTUI,
	}
	cmd.Flags().String("board", "", "Board ID to open (default: $"+cli.BoardEnvVar+" or config board.default)")
	return cmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	flag, _ := cmd.Flags().GetString("board")
	boardID, err := cli.ResolveBoardID(flag, cfg)
	if err != nil {
		return cli.WithSuggestion(cli.ExitUsage, err, "Pass --board, or run 'crmboard board list' to see the available boards.")
	}
	return launcher.Launch(cmd.Context(), cfg, boardID)
}

// Execute runs the command line and prints errors that no command reported
func Execute(ctx context.Context) error {
	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		if s := cli.Suggestion(err); s != "" {
			fmt.Fprintf(os.Stderr, "💡 Suggestion: %s\n", s)
		}
	}
	return err
}
