// Package item holds all cli commands related to board items
// e.g., crmboard item ...
package item

import (
	"github.com/spf13/cobra"
)

// ItemCmd returns the item parent command
func ItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Move deals and tasks",
	}

	cmd.AddCommand(MoveCmd())

	return cmd
}
