package events

import (
	"context"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// EventPublisher defines the interface for sending and receiving events.
type EventPublisher interface {
	// Connect establishes a connection to the daemon socket
	Connect(ctx context.Context) error

	// SendEvent queues an event to be sent to the daemon
	SendEvent(event Event) error

	// Listen starts listening for events from the daemon
	Listen(ctx context.Context) (<-chan Event, error)

	// Subscribe changes the subscription to a specific board
	Subscribe(boardID types.BoardID) error

	// Close closes the connection to the daemon and stops all goroutines
	Close() error
}

// Compile-time verification that *Client implements EventPublisher
var _ EventPublisher = (*Client)(nil)
