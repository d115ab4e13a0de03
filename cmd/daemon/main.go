package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/daemon"
	"github.com/thenoetrevino/crmboard/internal/logging"
)

func main() {
	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logPath := filepath.Join(filepath.Dir(cfg.Log.Path), "crmboard-daemon.log")
	closer, err := logging.Init(logPath, cfg.Log.Level)
	if err != nil {
		slog.Error("failed to initialize logging", "error", err)
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	// Ensure the socket directory exists with secure permissions
	if err := os.MkdirAll(filepath.Dir(cfg.Daemon.Socket), 0700); err != nil {
		slog.Error("failed to create socket directory", "error", err)
		os.Exit(1)
	}

	server, err := daemon.NewServer(cfg.Daemon.Socket, daemon.Options{
		BroadcastBuffer: cfg.Daemon.BroadcastBuffer,
		ClientBuffer:    cfg.Daemon.ClientBuffer,
	})
	if err != nil {
		slog.Error("failed to create daemon", "error", err)
		os.Exit(1)
	}

	slog.Info("crmboard daemon starting", "socket_path", cfg.Daemon.Socket, "pid", os.Getpid())

	// Start the daemon (blocks until shutdown)
	if err := server.Start(ctx); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}

	slog.Info("crmboard daemon shut down gracefully")
}
