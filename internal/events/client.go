package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// DefaultDebounce is the batching window used when none is configured
const DefaultDebounce = 100 * time.Millisecond

// Client is a connection to the crmboard daemon for live board updates.
// It handles event sending, receiving, batching, reconnection, and subscriptions.
type Client struct {
	socketPath string
	conn       net.Conn
	encoder    *json.Encoder
	decoder    *json.Decoder
	mu         sync.Mutex

	// Batching configuration
	eventQueue chan Event
	debounce   time.Duration
	closed     bool

	// Reconnection configuration
	maxRetries int
	baseDelay  time.Duration

	// Subscription state
	boardID types.BoardID

	// Event tracking
	lastSequence int64

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	// Batching goroutine
	batcherDone chan struct{}
}

// NewClient creates a new event client but does not connect.
// debounce controls how long outgoing events are batched; zero uses DefaultDebounce.
func NewClient(socketPath string, debounce time.Duration) (*Client, error) {
	if socketPath == "" {
		return nil, errors.New("socket path is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		socketPath:  socketPath,
		eventQueue:  make(chan Event, 100),
		debounce:    debounce,
		maxRetries:  5,
		baseDelay:   1 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
		batcherDone: make(chan struct{}),
	}
	go c.startBatcher()
	return c, nil
}

// Connect establishes a connection to the daemon socket and subscribes to
// the current board.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to dial daemon socket: %w", err)
	}

	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	// A restarted daemon numbers events from 1 again
	c.lastSequence = 0

	msg := Message{
		Version:   ProtocolVersion,
		Type:      MessageSubscribe,
		Subscribe: &SubscribeMessage{BoardID: c.boardID},
	}
	if err := c.encoder.Encode(msg); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Debug("error closing connection", "error", closeErr)
		}
		c.conn = nil
		return fmt.Errorf("failed to send subscription: %w", err)
	}

	return nil
}

// SendEvent queues an event to be sent to the daemon.
// Events are batched and sent in bursts within the debounce window.
// It never blocks; a full queue returns ErrQueueFull.
func (c *Client) SendEvent(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.eventQueue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// startBatcher coalesces queued events into at most one event per debounce
// window. Events for several boards collapse into an all-boards event.
func (c *Client) startBatcher() {
	defer close(c.batcherDone)

	ticker := time.NewTicker(c.debounce)
	defer ticker.Stop()

	var (
		pending bool
		batch   Event
	)

	add := func(evt Event) {
		if !pending {
			pending = true
			batch = Event{Type: EventBoardChanged, BoardID: evt.BoardID, ItemID: evt.ItemID}
			return
		}
		if batch.BoardID != evt.BoardID {
			batch.BoardID = ""
		}
		if batch.ItemID != evt.ItemID {
			batch.ItemID = ""
		}
	}

	flushPending := func() {
		if !pending {
			return
		}
		batch.Timestamp = time.Now()
		if err := c.sendMessage(Message{Version: ProtocolVersion, Type: MessageEvent, Event: &batch}); err != nil {
			if !isConnectionError(err) {
				slog.Debug("failed to send batched event", "board_id", batch.BoardID, "error", err)
			}
		}
		pending = false
	}

	for {
		select {
		case <-c.ctx.Done():
			// Drain what Close left behind before exiting
			for evt := range c.eventQueue {
				add(evt)
			}
			flushPending()
			return

		case evt, ok := <-c.eventQueue:
			if !ok {
				flushPending()
				return
			}
			add(evt)

		case <-ticker.C:
			flushPending()
		}
	}
}

// sendMessage encodes a message onto the socket
func (c *Client) sendMessage(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected to daemon")
	}

	// Set a short write deadline to detect dead connections
	if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return c.encoder.Encode(msg)
}

// Listen starts listening for events from the daemon.
// The returned channel is closed when ctx is done, the client is closed, or
// reconnection gives up.
func (c *Client) Listen(ctx context.Context) (<-chan Event, error) {
	eventChan := make(chan Event, 10)
	go c.listenLoop(ctx, eventChan)
	return eventChan, nil
}

func (c *Client) listenLoop(ctx context.Context, eventChan chan Event) {
	defer close(eventChan)

	for {
		if ctx.Err() != nil || c.ctx.Err() != nil {
			return
		}

		err := c.readEvents(ctx, eventChan)
		if ctx.Err() != nil || c.ctx.Err() != nil {
			return
		}
		slog.Info("daemon connection lost, reconnecting", "error", err)

		if !c.reconnect(ctx) {
			slog.Warn("failed to reconnect to daemon, giving up", "attempts", c.maxRetries)
			return
		}
		slog.Info("reconnected to daemon")
	}
}

// readEvents reads messages from the socket until it fails
func (c *Client) readEvents(ctx context.Context, eventChan chan Event) error {
	for {
		var msg Message

		c.mu.Lock()
		if c.conn == nil {
			c.mu.Unlock()
			return fmt.Errorf("connection closed")
		}
		// Read deadline detects hung connections; the daemon pings every 30s
		if err := c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
		decoder := c.decoder
		c.mu.Unlock()

		if err := decoder.Decode(&msg); err != nil {
			return fmt.Errorf("failed to decode message: %w", err)
		}

		switch msg.Type {
		case MessageEvent:
			if msg.Event == nil {
				continue
			}
			c.mu.Lock()
			fresh := msg.Event.SequenceID > c.lastSequence
			if fresh {
				c.lastSequence = msg.Event.SequenceID
			}
			c.mu.Unlock()
			if !fresh {
				continue
			}
			select {
			case eventChan <- *msg.Event:
			case <-ctx.Done():
				return ctx.Err()
			case <-c.ctx.Done():
				return c.ctx.Err()
			}

		case MessagePing:
			if err := c.sendMessage(Message{Version: ProtocolVersion, Type: MessagePong}); err != nil {
				// Broken pipe/connection closed is expected during disconnection
				if !isConnectionError(err) {
					slog.Debug("failed to send pong", "error", err)
				}
			}
		}
	}
}

// isConnectionError checks if an error is a network connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "not connected")
}

// reconnect attempts to reconnect to the daemon with exponential backoff.
// It tries up to maxRetries times, doubling the delay each time.
func (c *Client) reconnect(ctx context.Context) bool {
	delay := c.baseDelay

	for i := 0; i < c.maxRetries; i++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-c.ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}

		c.mu.Lock()
		if c.conn != nil {
			if err := c.conn.Close(); err != nil && !isConnectionError(err) {
				slog.Debug("error closing connection during reconnect", "error", err)
			}
			c.conn = nil
		}
		c.mu.Unlock()

		if err := c.Connect(ctx); err == nil {
			slog.Debug("reconnected to daemon", "attempt", i+1, "max_retries", c.maxRetries)
			return true
		}

		slog.Debug("reconnection attempt failed",
			"attempt", i+1,
			"max_retries", c.maxRetries,
			"retry_delay", delay)
		delay *= 2 // 1s, 2s, 4s, 8s, 16s
	}

	return false
}

// Subscribe changes the subscription to a specific board.
// An empty board id subscribes to all boards.
func (c *Client) Subscribe(boardID types.BoardID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.boardID = boardID
	if c.conn == nil {
		return fmt.Errorf("not connected to daemon")
	}

	return c.encoder.Encode(Message{
		Version:   ProtocolVersion,
		Type:      MessageSubscribe,
		Subscribe: &SubscribeMessage{BoardID: boardID},
	})
}

// Close flushes pending events, closes the connection and stops all goroutines.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	// Let the batcher flush whatever is still queued
	close(c.eventQueue)
	c.mu.Unlock()

	<-c.batcherDone
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
