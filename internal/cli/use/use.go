// Package use holds all cli commands related to setting contextual information
// e.g., crmboard use ...
package use

import (
	"github.com/spf13/cobra"
)

// UseCmd returns the use parent command
func UseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use",
		Short: "Manage contextual settings",
		Long: `Set and manage contextual information for the current shell session.

The 'use' command sets context that applies to subsequent commands,
eliminating the need to repeatedly specify flags.

Examples:
  eval $(crmboard use board pipeline)  # Use the pipeline board
  eval $(crmboard use board --clear)   # Clear board context
  crmboard use board --show            # Show current board`,
	}

	cmd.AddCommand(BoardCmd())

	return cmd
}
