package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thenoetrevino/crmboard/internal/events"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Options tunes the daemon's queues and health checks
type Options struct {
	// BroadcastBuffer is the number of published events waiting to be sequenced
	BroadcastBuffer int
	// ClientBuffer is each client's send queue size
	ClientBuffer int
	// PingInterval is how often clients are pinged and checked for staleness
	PingInterval time.Duration
	// StaleAfter removes clients that have not answered a ping for this long
	StaleAfter time.Duration
}

// DefaultOptions returns the daemon defaults
func DefaultOptions() Options {
	return Options{
		BroadcastBuffer: 100,
		ClientBuffer:    10,
		PingInterval:    30 * time.Second,
		StaleAfter:      90 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BroadcastBuffer <= 0 {
		o.BroadcastBuffer = d.BroadcastBuffer
	}
	if o.ClientBuffer <= 0 {
		o.ClientBuffer = d.ClientBuffer
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = d.StaleAfter
	}
	return o
}

// client represents a connected client to the daemon
type client struct {
	conn     net.Conn
	send     chan events.Message
	boardID  types.BoardID
	lastPong time.Time
	closed   bool
	mu       sync.Mutex // Protects boardID, lastPong, closed and sends on send
}

// deliver queues msg without blocking. It reports false when the queue is
// full or the client is gone.
func (c *client) deliver(msg events.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) subscription() types.BoardID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boardID
}

// envelope is a published event and the client it came from
type envelope struct {
	event  events.Event
	origin *client
}

// Server is the crmboard event daemon. It sequences board_changed events
// and fans them out to the clients subscribed to that board.
type Server struct {
	socketPath      string
	listener        net.Listener
	clients         map[*client]bool
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
	broadcast       chan envelope
	metrics         *Metrics
	sequenceCounter atomic.Int64
	opts            Options
	shutdownOnce    sync.Once
	wg              sync.WaitGroup
}

// NewServer creates the socket and returns a server that is not yet running
func NewServer(socketPath string, opts Options) (*Server, error) {
	opts = opts.withDefaults()

	// Ensure the directory exists
	if dir := filepath.Dir(socketPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create socket directory: %w", err)
		}
	}

	// Remove stale socket file if it exists
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket listener: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		listener:   listener,
		clients:    make(map[*client]bool),
		ctx:        ctx,
		cancel:     cancel,
		broadcast:  make(chan envelope, opts.BroadcastBuffer),
		metrics:    NewMetrics(),
		opts:       opts,
	}, nil
}

// Metrics returns the live counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start runs the accept, broadcast and health loops until ctx is done or
// Shutdown is called, then waits for every server goroutine to exit.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("daemon starting", "socket", s.socketPath)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	acceptErr := make(chan error, 1)
	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		acceptErr <- s.acceptLoop(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.broadcastLoop(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.monitorHealth(runCtx)
	}()

	var runErr error
	select {
	case <-runCtx.Done():
		slog.Info("daemon context cancelled, shutting down")
	case runErr = <-acceptErr:
		if runErr != nil {
			slog.Error("accept loop failed", "error", runErr)
		}
	}

	err := s.Shutdown()
	cancel()
	s.wg.Wait()

	snap := s.metrics.GetSnapshot()
	slog.Info("daemon stopped",
		"events_received", snap.EventsReceived,
		"broadcasts", snap.Broadcasts,
		"events_dropped", snap.EventsDropped,
		"uptime", snap.Uptime)
	return errors.Join(runErr, err)
}

// acceptLoop accepts incoming client connections
func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		// Set a deadline so we can check for context cancellation
		if ul, ok := s.listener.(*net.UnixListener); ok {
			if err := ul.SetDeadline(time.Now().Add(1 * time.Second)); err != nil && ctx.Err() == nil {
				slog.Debug("error setting listener deadline", "error", err)
			}
		}

		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept error: %w", err)
		}

		c := &client{
			conn:     conn,
			send:     make(chan events.Message, s.opts.ClientBuffer),
			lastPong: time.Now(),
		}

		s.mu.Lock()
		s.clients[c] = true
		s.mu.Unlock()

		s.metrics.IncConnections()
		s.updateClientCount()
		slog.Debug("client connected", "clients", s.getClientCount())

		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			s.handleClient(c)
		}()
		go func() {
			defer s.wg.Done()
			s.clientWriter(c)
		}()
	}
}

// broadcastLoop sequences events and distributes them to subscribed clients.
// The publishing client does not get its own event back.
func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case env := <-s.broadcast:
			event := env.event
			event.SequenceID = s.sequenceCounter.Add(1)
			s.metrics.IncBroadcasts()

			s.mu.RLock()
			targets := make([]*client, 0, len(s.clients))
			for c := range s.clients {
				if c != env.origin && event.Matches(c.subscription()) {
					targets = append(targets, c)
				}
			}
			s.mu.RUnlock()

			for _, c := range targets {
				msg := events.Message{
					Version: events.ProtocolVersion,
					Type:    events.MessageEvent,
					Event:   &event,
				}
				// Non-blocking send - a slow client misses the event and
				// catches up on its next refresh
				if !s.sendToClient(c, msg) {
					slog.Debug("client send queue full, event dropped",
						"board_id", event.BoardID,
						"sequence_id", event.SequenceID)
				}
			}
		}
	}
}

// handleClient reads messages from a connected client
func (s *Server) handleClient(c *client) {
	defer func() {
		s.removeClient(c)
		slog.Debug("client disconnected", "clients", s.getClientCount())
	}()

	decoder := json.NewDecoder(c.conn)

	for {
		var msg events.Message
		if err := decoder.Decode(&msg); err != nil {
			return
		}

		if msg.Version != 0 && msg.Version != events.ProtocolVersion {
			slog.Warn("protocol version mismatch",
				"received", msg.Version,
				"expected", events.ProtocolVersion)
		}

		switch msg.Type {
		case events.MessageEvent:
			if msg.Event == nil {
				continue
			}
			s.metrics.IncEventsReceived()
			if err := s.publish(envelope{event: *msg.Event, origin: c}); err != nil {
				s.metrics.IncEventsDropped()
				slog.Warn("broadcast queue full, event dropped", "board_id", msg.Event.BoardID)
			}

		case events.MessageSubscribe:
			if msg.Subscribe != nil {
				c.mu.Lock()
				c.boardID = msg.Subscribe.BoardID
				c.mu.Unlock()
				slog.Debug("client subscribed", "board_id", msg.Subscribe.BoardID)
			}

		case events.MessagePong:
			c.mu.Lock()
			c.lastPong = time.Now()
			c.mu.Unlock()
		}
	}
}

// clientWriter sends messages to a client
func (s *Server) clientWriter(c *client) {
	encoder := json.NewEncoder(c.conn)

	for msg := range c.send {
		if err := encoder.Encode(msg); err != nil {
			// handleClient notices the broken connection and removes c;
			// keep draining so deliver never blocks on a dead writer
			continue
		}
	}
}

// monitorHealth pings clients and removes the ones that stopped answering
func (s *Server) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	ping := events.Message{Version: events.ProtocolVersion, Type: events.MessagePing}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			// Collect under the server lock, act outside it
			s.mu.RLock()
			all := make([]*client, 0, len(s.clients))
			for c := range s.clients {
				all = append(all, c)
			}
			s.mu.RUnlock()

			for _, c := range all {
				c.mu.Lock()
				silent := now.Sub(c.lastPong)
				c.mu.Unlock()

				if silent > s.opts.StaleAfter {
					slog.Info("removing stale client", "last_pong_ago", silent.Round(time.Second))
					s.removeClient(c)
					continue
				}
				if !s.sendToClient(c, ping) {
					slog.Debug("failed to ping client, queue full")
				}
			}
		}
	}
}

// Broadcast publishes an event on behalf of the daemon itself (non-blocking)
func (s *Server) Broadcast(event events.Event) error {
	return s.publish(envelope{event: event})
}

func (s *Server) publish(env envelope) error {
	if s.ctx.Err() != nil {
		return fmt.Errorf("daemon is shutting down")
	}
	select {
	case s.broadcast <- env:
		return nil
	default:
		return fmt.Errorf("broadcast channel full")
	}
}

// Shutdown stops accepting clients, disconnects the connected ones and
// removes the socket file. The broadcast channel is left open so late
// publishers never panic.
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		slog.Info("shutting down daemon")

		s.cancel()

		if s.listener != nil {
			if closeErr := s.listener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
				err = fmt.Errorf("failed to close listener: %w", closeErr)
			}
		}

		s.mu.Lock()
		clients := s.clients
		s.clients = make(map[*client]bool)
		s.mu.Unlock()

		for c := range clients {
			_ = c.conn.Close()
			c.close()
		}
		s.updateClientCount()

		if removeErr := os.Remove(s.socketPath); removeErr != nil && !os.IsNotExist(removeErr) {
			slog.Warn("failed to remove socket file", "error", removeErr)
		}
	})

	return err
}

// Helper methods

func (s *Server) getClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) updateClientCount() {
	s.metrics.SetConnectedClients(int32(s.getClientCount()))
}

// removeClient safely removes a client from the server
func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()

	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("error closing client connection", "error", err)
	}
	c.close()

	s.updateClientCount()
}

// sendToClient attempts to send a message to a client (non-blocking)
// Returns true if successful, false if the queue is full
func (s *Server) sendToClient(c *client, msg events.Message) bool {
	if c.deliver(msg) {
		s.metrics.IncEventsSent()
		return true
	}
	s.metrics.IncEventsDropped()
	return false
}
