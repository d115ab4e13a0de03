package events

import (
	"time"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// ProtocolVersion is the wire protocol version stamped on every message
const ProtocolVersion = 1

// EventType indicates what kind of change occurred
type EventType string

const (
	EventBoardChanged EventType = "board_changed"
	EventPing         EventType = "ping"
	EventPong         EventType = "pong"
)

// Message types on the wire
const (
	MessageEvent     = "event"
	MessageSubscribe = "subscribe"
	MessagePing      = "ping"
	MessagePong      = "pong"
)

// Event is a board change notification
type Event struct {
	Type       EventType
	BoardID    types.BoardID `json:",omitempty"` // Empty means every board
	ItemID     types.ItemID  `json:",omitempty"` // Item that moved, when a single one did
	Timestamp  time.Time
	SequenceID int64 // Monotonically increasing, assigned by the daemon
}

// SubscribeMessage is sent by clients to subscribe to one board's updates
type SubscribeMessage struct {
	BoardID types.BoardID // Empty subscribes to all boards
}

// Message wraps events and control messages for the JSON lines protocol
type Message struct {
	Version   int               `json:",omitempty"`
	Type      string            // "event", "subscribe", "ping", "pong"
	Event     *Event            `json:",omitempty"`
	Subscribe *SubscribeMessage `json:",omitempty"`
}

// Matches reports whether a subscriber to boardID should receive e
func (e Event) Matches(boardID types.BoardID) bool {
	return e.BoardID == "" || boardID == "" || e.BoardID == boardID
}
