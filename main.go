package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thenoetrevino/crmboard/cmd"
	"github.com/thenoetrevino/crmboard/internal/cli"
)

func main() {
	// Cancelling the context lets queued moves drain before exit
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		cancel()
		os.Exit(cli.ExitCode(err))
	}
}
