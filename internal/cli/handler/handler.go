// Package handler provides command execution abstraction to reduce boilerplate
package handler

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thenoetrevino/crmboard/internal/cli"
)

// Handler defines the interface for command execution
type Handler interface {
	// Execute runs the command with parsed arguments
	Execute(ctx context.Context, args *Arguments) (any, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, args *Arguments) (any, error)

func (f HandlerFunc) Execute(ctx context.Context, args *Arguments) (any, error) {
	return f(ctx, args)
}

// Arguments captures parsed CLI arguments and flags
type Arguments struct {
	Flags map[string]any
	Args  []string
	cmd   *cobra.Command
}

// GetCmd returns the cobra command for access to flag parsing utilities
func (a *Arguments) GetCmd() *cobra.Command {
	return a.cmd
}

// AddOutputFlags registers the agent-friendly output flags
func AddOutputFlags(cmd *cobra.Command, markdown bool) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("quiet", false, "Minimal output (ID only)")
	if markdown {
		cmd.Flags().Bool("markdown", false, "Render output as markdown")
		cmd.Flags().String("style", "", "Markdown style (dark, light, notty, ...)")
	}
}

// Formatter builds the output formatter selected by a command's flags
func Formatter(cmd *cobra.Command) *cli.OutputFormatter {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	markdown, _ := cmd.Flags().GetBool("markdown")
	style, _ := cmd.Flags().GetString("style")
	return &cli.OutputFormatter{JSON: jsonOutput, Quiet: quietMode, Markdown: markdown, MarkdownStyle: style}
}

// Command wraps common command execution logic
// Returns a cobra RunE compatible function
func Command(handler Handler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		formatter := Formatter(cmd)

		arguments := &Arguments{
			Flags: parseFlagsToMap(cmd),
			Args:  args,
			cmd:   cmd,
		}

		result, err := handler.Execute(cmd.Context(), arguments)
		if err != nil {
			if fmtErr := formatter.ErrorWithSuggestion(cli.ErrorCode(err), err.Error(), cli.Suggestion(err)); fmtErr != nil {
				slog.Error("failed to format error message", "error", fmtErr)
				return err
			}
			return cli.Reported(err)
		}

		// Common output formatting
		return formatter.Success(result)
	}
}

// parseFlagsToMap converts cobra command flags to a map
func parseFlagsToMap(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)

	// Visit all flags that were explicitly set
	cmd.Flags().Visit(func(f *pflag.Flag) {
		// Get the value based on flag type
		switch f.Value.Type() {
		case "string":
			if v, err := cmd.Flags().GetString(f.Name); err == nil {
				flags[f.Name] = v
			}
		case "int":
			if v, err := cmd.Flags().GetInt(f.Name); err == nil {
				flags[f.Name] = v
			}
		case "bool":
			if v, err := cmd.Flags().GetBool(f.Name); err == nil {
				flags[f.Name] = v
			}
		case "stringSlice":
			if v, err := cmd.Flags().GetStringSlice(f.Name); err == nil {
				flags[f.Name] = v
			}
		default:
			slog.Debug("unsupported flag type", "flag", f.Name, "type", f.Value.Type())
		}
	})

	return flags
}

// GetString retrieves a string flag with default
func (a *Arguments) GetString(name string, defaultVal string) string {
	if val, ok := a.Flags[name].(string); ok {
		return val
	}
	return defaultVal
}

// GetInt retrieves an int flag with default
func (a *Arguments) GetInt(name string, defaultVal int) int {
	if val, ok := a.Flags[name].(int); ok {
		return val
	}
	return defaultVal
}

// GetBool retrieves a bool flag
func (a *Arguments) GetBool(name string) bool {
	val, _ := a.Flags[name].(bool)
	return val
}

// GetStringSlice retrieves a string slice flag with default
func (a *Arguments) GetStringSlice(name string, defaultVal []string) []string {
	if val, ok := a.Flags[name].([]string); ok {
		return val
	}
	return defaultVal
}

// IsSet reports whether a flag was given on the command line
func (a *Arguments) IsSet(name string) bool {
	_, ok := a.Flags[name]
	return ok
}
