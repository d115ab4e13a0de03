package kanban

import (
	"fmt"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// IntentKind discriminates the DropIntent variants
type IntentKind int

const (
	// IntentNone means the pointer is over no valid target; dropping cancels
	IntentNone IntentKind = iota
	// IntentColumn means insert into ColumnID at Index
	IntentColumn
)

// DropIntent is the resolved target of a drag.
// Index counts positions in the target column's list with the dragged item
// removed: 0 is before the first item, len is after the last.
type DropIntent struct {
	Kind     IntentKind
	ColumnID types.ColumnID
	Index    int
}

// NoIntent returns the empty intent
func NoIntent() DropIntent {
	return DropIntent{Kind: IntentNone}
}

// ColumnIntent returns an intent to insert into a column at index
func ColumnIntent(columnID types.ColumnID, index int) DropIntent {
	return DropIntent{Kind: IntentColumn, ColumnID: columnID, Index: index}
}

// IsNone reports whether the intent is the cancellation variant
func (d DropIntent) IsNone() bool {
	return d.Kind != IntentColumn
}

func (d DropIntent) String() string {
	if d.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s@%d", d.ColumnID, d.Index)
}
