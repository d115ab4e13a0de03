// Package board holds all cli commands related to boards
// e.g., crmboard board ...
package board

import (
	"github.com/spf13/cobra"
)

// BoardCmd returns the board parent command
func BoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect boards",
	}

	cmd.AddCommand(ListCmd())
	cmd.AddCommand(ShowCmd())

	return cmd
}
