package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/database"
	"github.com/thenoetrevino/crmboard/internal/events"
	"github.com/thenoetrevino/crmboard/internal/services/board"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// App holds the store, the event client and the configuration shared by
// every board session.
type App struct {
	db          *sql.DB
	eventClient events.EventPublisher
	logger      *slog.Logger
	config      *config.Config

	// Repo is the SQLite board store
	Repo *database.BoardRepo

	offline *events.OfflineError

	listenOnce sync.Once
	mu         sync.Mutex
	sessions   map[*Session]struct{}
}

var _ board.Gateway = (*database.BoardRepo)(nil)

// New creates an App over an open database
func New(db *sql.DB, opts ...Option) *App {
	cfg := appConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.config == nil {
		cfg.config = config.Default()
	}

	return &App{
		db:          db,
		eventClient: cfg.eventClient,
		logger:      cfg.logger,
		config:      cfg.config,
		Repo:        database.NewBoardRepo(db, cfg.eventClient),
		sessions:    make(map[*Session]struct{}),
	}
}

// Setup opens the configured database and, when the daemon is reachable,
// an event client. Live updates are optional: a missing daemon is logged
// and the app runs without them.
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.InitDB(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	opts := []Option{WithConfig(cfg)}

	var offline *events.OfflineError
	client, err := events.NewClient(cfg.Daemon.Socket, cfg.Daemon.Debounce())
	if err == nil {
		if connErr := client.Connect(ctx); connErr != nil {
			offline = events.Offline(cfg.Daemon.Socket, connErr)
			slog.Debug("live updates disabled", "error", offline)
			_ = client.Close()
		} else {
			opts = append(opts, WithEventPublisher(client))
		}
	}

	a := New(db, opts...)
	a.offline = offline
	return a, nil
}

// Config returns the active configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Live reports whether an event client is connected
func (a *App) Live() bool {
	return a.eventClient != nil
}

// OfflineReason explains why Live is false, or is empty
func (a *App) OfflineReason() string {
	if a.offline == nil {
		return ""
	}
	return a.offline.Reason()
}

// BoardOptions maps the persistence config onto the board write path
func (a *App) BoardOptions(notifier board.Notifier) board.Options {
	p := a.config.Persistence
	return board.Options{
		Timeout:     p.Timeout(),
		MaxAttempts: p.MaxAttempts,
		BaseDelay:   p.BaseDelay(),
		QueueSize:   p.QueueSize,
		Notifier:    notifier,
	}
}

// OpenBoard loads boardID and returns a running session. With an event
// client the session refreshes itself when another process changes the board.
func (a *App) OpenBoard(ctx context.Context, boardID types.BoardID, notifier board.Notifier) (*Session, error) {
	svc, err := board.NewService(boardID, a.Repo, a.BoardOptions(notifier))
	if err != nil {
		return nil, err
	}
	if err := svc.Refresh(ctx); err != nil {
		_ = svc.Close(ctx)
		return nil, err
	}

	s := newSession(svc, a.forget)
	if a.eventClient == nil {
		return s, nil
	}

	a.mu.Lock()
	a.sessions[s] = struct{}{}
	subscription := a.subscriptionLocked()
	a.mu.Unlock()

	if err := a.eventClient.Subscribe(subscription); err != nil {
		a.logger.Warn("failed to subscribe to board", "board_id", subscription, "error", err)
	}
	a.listenOnce.Do(a.startListening)
	s.watch()
	return s, nil
}

// subscriptionLocked is the single board every open session shares, or
// every board when sessions differ
func (a *App) subscriptionLocked() types.BoardID {
	var id types.BoardID
	for s := range a.sessions {
		switch {
		case id == "":
			id = s.BoardID()
		case id != s.BoardID():
			return ""
		}
	}
	return id
}

func (a *App) forget(s *Session) {
	a.mu.Lock()
	delete(a.sessions, s)
	a.mu.Unlock()
}

// startListening runs one dispatcher for the lifetime of the event client
func (a *App) startListening() {
	ch, err := a.eventClient.Listen(context.Background())
	if err != nil {
		a.logger.Warn("failed to listen for board changes", "error", err)
		return
	}
	go func() {
		for evt := range ch {
			a.mu.Lock()
			for s := range a.sessions {
				if evt.Matches(s.BoardID()) {
					s.poke()
				}
			}
			a.mu.Unlock()
		}
	}()
}

// Close performs cleanup of application resources
func (a *App) Close() error {
	var errs []error
	if a.eventClient != nil {
		errs = append(errs, a.eventClient.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
