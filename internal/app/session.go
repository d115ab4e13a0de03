package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/thenoetrevino/crmboard/internal/services/board"
)

// remoteRefreshTimeout bounds the refresh triggered by a remote change
const remoteRefreshTimeout = 5 * time.Second

// Session is an open board plus the goroutine feeding it remote changes
type Session struct {
	board.Service

	changed chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	watched chan struct{} // nil until watch starts
	forget  func(*Session)
}

func newSession(svc board.Service, forget func(*Session)) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		Service: svc,
		changed: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		forget:  forget,
	}
}

// poke records a remote change without blocking; bursts collapse into one
func (s *Session) poke() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// watch turns pokes into HandleRemoteChange calls
func (s *Session) watch() {
	done := make(chan struct{})
	s.watched = done
	go func() {
		defer close(done)
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-s.changed:
				ctx, cancel := context.WithTimeout(s.ctx, remoteRefreshTimeout)
				if err := s.HandleRemoteChange(ctx); err != nil {
					slog.Warn("remote refresh failed", "board_id", s.BoardID(), "error", err)
				}
				cancel()
			}
		}
	}()
}

// Close stops watching for remote changes, then drains and closes the board
func (s *Session) Close(ctx context.Context) error {
	if s.forget != nil {
		s.forget(s)
	}
	s.cancel()
	if s.watched != nil {
		<-s.watched
	}
	return s.Service.Close(ctx)
}
