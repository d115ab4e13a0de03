package use

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/crmboard/internal/cli"
	"github.com/thenoetrevino/crmboard/internal/database"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// BoardCmd returns the use board subcommand
func BoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board [board-id]",
		Short: "Set board context for current shell session",
		Long: `Set the current board context using an environment variable.
This command outputs shell commands that should be evaluated:

  eval $(crmboard use board pipeline)   # Use the pipeline board
  eval $(crmboard use board --clear)    # Clear board context
  crmboard use board --show             # Show current board

The ` + cli.BoardEnvVar + ` environment variable will be set in your current shell
session only. The --board flag on other commands takes precedence over
this environment variable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runUseBoard,
	}

	cmd.Flags().Bool("clear", false, "Clear the current board context")
	cmd.Flags().Bool("show", false, "Show the current board context")

	return cmd
}

func runUseBoard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if show, _ := cmd.Flags().GetBool("show"); show {
		return showCurrentBoard(ctx, cmd)
	}

	if clearFlag, _ := cmd.Flags().GetBool("clear"); clearFlag {
		fmt.Fprintf(out, "unset %s\n", cli.BoardEnvVar)
		fmt.Fprintf(errOut, "Cleared board context\n")
		return nil
	}

	if len(args) == 0 {
		return cli.WithExitCode(cli.ExitUsage,
			fmt.Errorf("board ID required\nUsage: eval $(crmboard use board <board-id>)"))
	}
	boardID := types.BoardID(args[0])

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return fmt.Errorf("initialization error: %w", err)
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	b, err := cliInstance.App.Repo.GetBoard(ctx, boardID)
	if errors.Is(err, database.ErrBoardNotFound) {
		fmt.Fprintf(errOut, "Error: board %s not found\n", boardID)
		fmt.Fprintf(errOut, "Suggestion: Use 'crmboard board list' to see available boards\n")
		return cli.WithExitCode(cli.ExitNotFound, err)
	}
	if err != nil {
		return err
	}

	// Shell export command goes to stdout for eval
	fmt.Fprintf(out, "export %s=%s\n", cli.BoardEnvVar, b.ID)
	fmt.Fprintf(errOut, "Now using board %s: %s\n", b.ID, b.Name)
	return nil
}

func showCurrentBoard(ctx context.Context, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	current := os.Getenv(cli.BoardEnvVar)
	if current == "" {
		fmt.Fprintln(out, "No board context set")
		fmt.Fprintln(out, "Use 'eval $(crmboard use board <board-id>)' to set one")
		return nil
	}

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return fmt.Errorf("initialization error: %w", err)
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	b, err := cliInstance.App.Repo.GetBoard(ctx, types.BoardID(current))
	if err != nil {
		fmt.Fprintf(out, "Current board: %s (board not found)\n", current)
		return nil
	}
	fmt.Fprintf(out, "Current board: %s (%s)\n", b.ID, b.Name)
	return nil
}
