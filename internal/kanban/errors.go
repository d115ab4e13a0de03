package kanban

import (
	"errors"
	"fmt"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// Board engine errors
var (
	// ErrInvalidState indicates a drag operation called in the wrong tracker state
	ErrInvalidState = errors.New("invalid drag state")

	// ErrItemNotFound indicates an item id that is not present in the snapshot
	ErrItemNotFound = errors.New("item not found")

	// ErrColumnNotFound indicates a drop target column that is not on the board
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateItem indicates a server payload listing the same item twice
	ErrDuplicateItem = errors.New("duplicate item id")

	// ErrStaleTransition indicates a transition planned against contents the store no longer holds
	ErrStaleTransition = errors.New("transition does not match current board")

	// ErrPersistenceFailed indicates the gateway rejected or timed out a write
	ErrPersistenceFailed = errors.New("move was not saved")

	// ErrRejected marks a gateway error that retrying cannot fix (unknown
	// item, constraint violation). Gateways wrap it so writers give up at once.
	ErrRejected = errors.New("write rejected by store")
)

// InvalidStateError reports a tracker operation that is illegal in the current state.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", ErrInvalidState, e.Op, e.State)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// ItemNotFoundError reports an item id absent from the board snapshot.
type ItemNotFoundError struct {
	ItemID types.ItemID
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrItemNotFound, e.ItemID)
}

func (e *ItemNotFoundError) Unwrap() error {
	return ErrItemNotFound
}

// PersistenceFailure wraps a gateway error for one committed transition.
type PersistenceFailure struct {
	TransitionID types.TransitionID
	ItemID       types.ItemID
	Err          error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("%s: item %q: %v", ErrPersistenceFailed, e.ItemID, e.Err)
}

// Unwrap exposes both the sentinel and the gateway error to errors.Is
func (e *PersistenceFailure) Unwrap() []error {
	return []error{ErrPersistenceFailed, e.Err}
}
