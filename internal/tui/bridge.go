package tui

import (
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/services/board"
)

// BoardChangedMsg reports that the store contents changed
type BoardChangedMsg struct {
	Version uint64
}

// NoticeMsg carries a notice from the write path
type NoticeMsg struct {
	Notice board.Notice
}

// bridgeBuffer bounds the notices waiting for the UI; older ones are dropped
const bridgeBuffer = 32

// Bridge moves store changes and notices from service goroutines into the
// program as tea messages. It is a board.Notifier so it can be handed to
// OpenBoard before the model exists.
type Bridge struct {
	notices chan board.Notice
	changed chan uint64

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewBridge creates an empty bridge
func NewBridge() *Bridge {
	return &Bridge{
		notices: make(chan board.Notice, bridgeBuffer),
		changed: make(chan uint64, 1),
		done:    make(chan struct{}),
	}
}

// Notify implements board.Notifier. It never blocks the outbox.
func (b *Bridge) Notify(n board.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.notices <- n:
	default:
	}
}

// Listener returns a store listener feeding BoardChangedMsg. Bursts of
// changes collapse into one message carrying the latest version.
func (b *Bridge) Listener() kanban.Listener {
	return func(snap kanban.Snapshot) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return
		}
		select {
		case b.changed <- snap.Version():
		default:
			select {
			case <-b.changed:
			default:
			}
			b.changed <- snap.Version()
		}
	}
}

// Wait returns a command that blocks until the next change or notice.
// It yields nil once the bridge is closed.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-b.notices:
			return NoticeMsg{Notice: n}
		case v := <-b.changed:
			return BoardChangedMsg{Version: v}
		case <-b.done:
			return nil
		}
	}
}

// Close releases a blocked Wait. Later notices are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}
