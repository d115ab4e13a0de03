package app

import (
	"log/slog"

	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/events"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	eventClient events.EventPublisher
	logger      *slog.Logger
	config      *config.Config
}

// WithEventPublisher sets the event publisher for the application
func WithEventPublisher(ec events.EventPublisher) Option {
	return func(cfg *appConfig) {
		cfg.eventClient = ec
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}

// WithConfig sets the configuration; defaults are used otherwise
func WithConfig(c *config.Config) Option {
	return func(cfg *appConfig) {
		cfg.config = c
	}
}
