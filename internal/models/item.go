package models

import "github.com/thenoetrevino/crmboard/internal/types"

// OrderedItem is a deal or task as seen by the board: its id, the column it
// currently belongs to, its rank inside that column and opaque display data.
type OrderedItem struct {
	ID       types.ItemID
	ColumnID types.ColumnID
	Position int
	Payload  Payload
}

// Clone returns a copy of the item that shares no mutable state with it
func (i OrderedItem) Clone() OrderedItem {
	c := i
	if i.Payload.DueAt != nil {
		due := *i.Payload.DueAt
		c.Payload.DueAt = &due
	}
	return c
}

// GetID returns the item id, used by the CLI quiet output mode
func (i OrderedItem) GetID() string {
	return string(i.ID)
}
