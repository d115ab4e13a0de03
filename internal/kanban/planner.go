package kanban

import (
	"fmt"

	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Transition is the planned new state of the one or two columns touched by a drop.
// When the drag stayed inside one column SourceColumnID == TargetColumnID and
// only TargetItems is meaningful.
type Transition struct {
	ItemID         types.ItemID
	SourceColumnID types.ColumnID
	SourceItems    []models.OrderedItem
	TargetColumnID types.ColumnID
	TargetItems    []models.OrderedItem

	// NoOp is set when the resulting order equals the current order.
	// A NoOp transition carries no item lists and must not be persisted.
	NoOp bool
}

// SameColumn reports whether the drag stayed inside its source column
func (t Transition) SameColumn() bool {
	return t.SourceColumnID == t.TargetColumnID
}

// Moved returns the dragged item with its final column and position
func (t Transition) Moved() (models.OrderedItem, bool) {
	for _, it := range t.TargetItems {
		if it.ID == t.ItemID {
			return it, true
		}
	}
	return models.OrderedItem{}, false
}

// Plan computes the transition for dropping itemID at intent.
// It is pure: the snapshot is never modified and the same input always yields
// the same output. A cancellation intent yields a NoOp transition.
func Plan(snap Snapshot, itemID types.ItemID, intent DropIntent) (Transition, error) {
	sourceID, _, ok := snap.Locate(itemID)
	if !ok {
		return Transition{}, &ItemNotFoundError{ItemID: itemID}
	}
	if intent.IsNone() {
		return Transition{ItemID: itemID, SourceColumnID: sourceID, TargetColumnID: sourceID, NoOp: true}, nil
	}
	if !snap.HasColumn(intent.ColumnID) {
		return Transition{}, fmt.Errorf("%w: %q", ErrColumnNotFound, intent.ColumnID)
	}

	before := snap.lists[sourceID]
	moved, rest := removeByID(before, itemID)

	targetID := intent.ColumnID
	if targetID == sourceID {
		after := insertAt(rest, moved, intent.Index)
		if sameOrder(before, after) {
			return Transition{ItemID: itemID, SourceColumnID: sourceID, TargetColumnID: targetID, NoOp: true}, nil
		}
		renumber(after)
		return Transition{
			ItemID:         itemID,
			SourceColumnID: sourceID,
			TargetColumnID: targetID,
			TargetItems:    after,
		}, nil
	}

	moved.ColumnID = targetID
	target := insertAt(cloneItems(snap.lists[targetID]), moved, intent.Index)
	renumber(rest)
	renumber(target)

	return Transition{
		ItemID:         itemID,
		SourceColumnID: sourceID,
		SourceItems:    rest,
		TargetColumnID: targetID,
		TargetItems:    target,
	}, nil
}

// removeByID returns the item with the given id and a fresh list without it
func removeByID(items []models.OrderedItem, id types.ItemID) (models.OrderedItem, []models.OrderedItem) {
	var moved models.OrderedItem
	rest := make([]models.OrderedItem, 0, len(items))
	for _, it := range items {
		if it.ID == id {
			moved = it.Clone()
			continue
		}
		rest = append(rest, it.Clone())
	}
	return moved, rest
}

// insertAt inserts item at index, clamped to [0, len(items)]
func insertAt(items []models.OrderedItem, item models.OrderedItem, index int) []models.OrderedItem {
	if index < 0 {
		index = 0
	}
	if index > len(items) {
		index = len(items)
	}
	out := make([]models.OrderedItem, 0, len(items)+1)
	out = append(out, items[:index]...)
	out = append(out, item)
	out = append(out, items[index:]...)
	return out
}

// renumber assigns dense positions 0..n-1 in list order
func renumber(items []models.OrderedItem) {
	for i := range items {
		items[i].Position = i
	}
}

func sameOrder(a, b []models.OrderedItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
