package types

import "github.com/google/uuid"

// ID types give the opaque identifiers of the board domain their own names.
// They are strings so that ids minted by the remote store (UUIDs, slugs,
// numeric keys rendered as text) pass through unchanged.

// BoardID identifies a board (a deal pipeline or a task board)
type BoardID string

// ColumnID identifies a column (pipeline stage or task status bucket)
type ColumnID string

// ItemID identifies a deal or task; unique across the whole board
type ItemID string

// TransitionID identifies one committed transition
type TransitionID string

// PriorityID identifies a task priority level (e.g., trivial, low, high)
type PriorityID int

// TypeID identifies a task type (e.g., task, feature, bug)
type TypeID int

const (
	// Task type constants
	TaskTypeTask    TypeID = 1
	TaskTypeFeature TypeID = 2
	TaskTypeBug     TypeID = 3

	// Priority constants
	PriorityTrivial  PriorityID = 1
	PriorityLow      PriorityID = 2
	PriorityMedium   PriorityID = 3
	PriorityHigh     PriorityID = 4
	PriorityCritical PriorityID = 5
)

// NewTransitionID mints a random transition id
func NewTransitionID() TransitionID {
	return TransitionID(uuid.NewString())
}

// NewItemID mints a random item id, used when seeding boards
func NewItemID() ItemID {
	return ItemID(uuid.NewString())
}

// NewColumnID mints a random column id
func NewColumnID() ColumnID {
	return ColumnID(uuid.NewString())
}

func (id BoardID) String() string {
	return string(id)
}

func (id ColumnID) String() string {
	return string(id)
}

func (id ItemID) String() string {
	return string(id)
}

func (id TransitionID) String() string {
	return string(id)
}

// ToInt converts type alias back to int for storage
func (id PriorityID) ToInt() int {
	return int(id)
}

func (id TypeID) ToInt() int {
	return int(id)
}
