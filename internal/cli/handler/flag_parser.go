package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/crmboard/internal/cli"
	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// FlagParser provides common flag extraction patterns
type FlagParser struct {
	cmd *cobra.Command
}

// NewFlagParser creates a new flag parser
func NewFlagParser(cmd *cobra.Command) *FlagParser {
	return &FlagParser{cmd: cmd}
}

// AddBoardFlag registers --board
func AddBoardFlag(cmd *cobra.Command) {
	cmd.Flags().String("board", "", "Board ID (uses "+cli.BoardEnvVar+" or board.default if not specified)")
}

// AddFilterFlags registers the board filter flags
func AddFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("priority", nil, "Only show these priorities (trivial, low, medium, high, critical)")
	cmd.Flags().StringSlice("type", nil, "Only show these types (task, feature, bug)")
	cmd.Flags().String("status", "", "Only show a status tab (open, overdue, done)")
	cmd.Flags().String("due-from", "", "Only show items due on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("due-to", "", "Only show items due on or before this date (YYYY-MM-DD)")
}

// ParseBoardID resolves the board from --board, the environment or cfg
func (p *FlagParser) ParseBoardID(cfg *config.Config) (types.BoardID, error) {
	flag, _ := p.cmd.Flags().GetString("board")
	boardID, err := cli.ResolveBoardID(strings.TrimSpace(flag), cfg)
	if err != nil {
		return "", cli.WithSuggestion(cli.ExitUsage, err, "Run 'crmboard board list' to see available boards")
	}
	return boardID, nil
}

// ParseString extracts a required string flag
func (p *FlagParser) ParseString(flagName string) (string, error) {
	value, err := p.cmd.Flags().GetString(flagName)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s flag: %w", flagName, err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", cli.WithExitCode(cli.ExitUsage, fmt.Errorf("%s is required", flagName))
	}
	return value, nil
}

// ParseIndex extracts an optional non-negative index flag. ok is false
// when the flag was not given.
func (p *FlagParser) ParseIndex(flagName string) (index int, ok bool, err error) {
	if !p.cmd.Flags().Changed(flagName) {
		return 0, false, nil
	}
	index, err = p.cmd.Flags().GetInt(flagName)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse %s flag: %w", flagName, err)
	}
	if index < 0 {
		return 0, false, cli.WithExitCode(cli.ExitValidation, fmt.Errorf("%s must not be negative", flagName))
	}
	return index, true, nil
}

// ParseFilter builds the board filter from the filter flags
func (p *FlagParser) ParseFilter(now time.Time) (kanban.Filter, error) {
	flags := p.cmd.Flags()
	var ff cli.FilterFlags
	ff.Priorities, _ = flags.GetStringSlice("priority")
	ff.Types, _ = flags.GetStringSlice("type")
	ff.Status, _ = flags.GetString("status")
	ff.DueFrom, _ = flags.GetString("due-from")
	ff.DueTo, _ = flags.GetString("due-to")

	f, err := cli.ParseFilter(ff, now)
	if err != nil {
		return kanban.Filter{}, cli.WithExitCode(cli.ExitValidation, err)
	}
	return f, nil
}
