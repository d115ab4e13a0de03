package cli

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/crmboard/internal/app"
	"github.com/thenoetrevino/crmboard/internal/config"
)

// CLI represents the CLI application context
type CLI struct {
	App *app.App // Application container with the board store
	ctx context.Context

	// owned is false when the App was injected and belongs to the caller
	owned bool
}

// NewCLI loads the configuration, opens the database and connects to the
// daemon when it is running
func NewCLI(ctx context.Context) (*CLI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := app.Setup(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}

	return &CLI{App: application, ctx: ctx, owned: true}, nil
}

// Close cleans up CLI resources
func (c *CLI) Close() error {
	if !c.owned {
		return nil
	}
	return c.App.Close()
}

type appKey struct{}

// WithApp returns a context that makes GetCLIFromContext reuse application
// instead of opening the configured database
func WithApp(ctx context.Context, application *app.App) context.Context {
	return context.WithValue(ctx, appKey{}, application)
}

// GetCLIFromContext returns the CLI for a command. An App injected with
// WithApp is used as is and not closed by CLI.Close.
func GetCLIFromContext(ctx context.Context) (*CLI, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if application, ok := ctx.Value(appKey{}).(*app.App); ok && application != nil {
		return &CLI{App: application, ctx: ctx}, nil
	}
	return NewCLI(ctx)
}
