package kanban

import (
	"sync"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// State is the drag tracker state
type State int

const (
	// Idle means no drag is in progress
	Idle State = iota
	// Dragging means an item is held and a pre-drag snapshot is kept
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// SnapshotSource is the read side of the store the tracker needs
type SnapshotSource interface {
	Snapshot() Snapshot
}

// Drop is what EndDrag hands to the commit path: the dragged item, the
// resolved intent and the board as it was when the drag began.
type Drop struct {
	ItemID   types.ItemID
	Intent   DropIntent
	Snapshot Snapshot
}

// Cancelled reports whether the drop carries no target
func (d Drop) Cancelled() bool {
	return d.Intent.IsNone()
}

// Tracker holds the ephemeral state of one drag gesture.
// It never mutates the store.
type Tracker struct {
	mu       sync.Mutex
	source   SnapshotSource
	state    State
	activeID types.ItemID
	hoverID  string
	snapshot Snapshot
}

// NewTracker creates an idle tracker reading from source
func NewTracker(source SnapshotSource) *Tracker {
	return &Tracker{source: source}
}

// BeginDrag starts dragging itemID, capturing a snapshot of the board
func (t *Tracker) BeginDrag(itemID types.ItemID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Idle {
		return &InvalidStateError{Op: "begin drag", State: t.state}
	}
	snap := t.source.Snapshot()
	if _, ok := snap.Item(itemID); !ok {
		return &ItemNotFoundError{ItemID: itemID}
	}

	t.state = Dragging
	t.activeID = itemID
	t.hoverID = ""
	t.snapshot = snap
	return nil
}

// UpdateHover records the zone currently under the pointer, for feedback only
func (t *Tracker) UpdateHover(targetID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Dragging {
		return &InvalidStateError{Op: "update hover", State: t.state}
	}
	t.hoverID = targetID
	return nil
}

// EndDrag finishes the gesture and returns the drop for the commit path.
// A none intent means the gesture was cancelled.
func (t *Tracker) EndDrag(intent DropIntent) (Drop, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Dragging {
		return Drop{}, &InvalidStateError{Op: "end drag", State: t.state}
	}
	drop := Drop{ItemID: t.activeID, Intent: intent, Snapshot: t.snapshot}
	t.reset()
	return drop, nil
}

// CancelDrag clears the tracker. Calling it while idle does nothing.
func (t *Tracker) CancelDrag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// State returns the current state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Active returns the dragged item id, if any
func (t *Tracker) Active() (types.ItemID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeID, t.state == Dragging
}

// Hover returns the last hovered zone id
func (t *Tracker) Hover() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hoverID
}

func (t *Tracker) reset() {
	t.state = Idle
	t.activeID = ""
	t.hoverID = ""
	t.snapshot = Snapshot{}
}
