package kanban

import (
	"fmt"
	"sort"

	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Snapshot is an immutable deep copy of the store: columns in display order
// and each column's items in position order.
type Snapshot struct {
	columns []models.Column
	lists   map[types.ColumnID][]models.OrderedItem
	version uint64
}

// Columns returns the columns in display order
func (s Snapshot) Columns() []models.Column {
	out := make([]models.Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column returns a copy of a column's ordered items
func (s Snapshot) Column(id types.ColumnID) []models.OrderedItem {
	return cloneItems(s.lists[id])
}

// HasColumn reports whether the column exists on the board
func (s Snapshot) HasColumn(id types.ColumnID) bool {
	_, ok := s.lists[id]
	return ok
}

// Locate returns the column and index of an item
func (s Snapshot) Locate(id types.ItemID) (types.ColumnID, int, bool) {
	for _, col := range s.columns {
		for i, it := range s.lists[col.ID] {
			if it.ID == id {
				return col.ID, i, true
			}
		}
	}
	return "", 0, false
}

// Item returns an item by id
func (s Snapshot) Item(id types.ItemID) (models.OrderedItem, bool) {
	colID, idx, ok := s.Locate(id)
	if !ok {
		return models.OrderedItem{}, false
	}
	return s.lists[colID][idx].Clone(), true
}

// Version is the store version the snapshot was taken at
func (s Snapshot) Version() uint64 {
	return s.version
}

// ItemCount returns the total number of items on the board
func (s Snapshot) ItemCount() int {
	total := 0
	for _, items := range s.lists {
		total += len(items)
	}
	return total
}

// Order returns the item ids of every column, keyed by column
func (s Snapshot) Order() map[types.ColumnID][]types.ItemID {
	out := make(map[types.ColumnID][]types.ItemID, len(s.lists))
	for colID, items := range s.lists {
		ids := make([]types.ItemID, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		out[colID] = ids
	}
	return out
}

func (s Snapshot) clone() Snapshot {
	lists := make(map[types.ColumnID][]models.OrderedItem, len(s.lists))
	for colID, items := range s.lists {
		lists[colID] = cloneItems(items)
	}
	return Snapshot{columns: s.Columns(), lists: lists, version: s.version}
}

func cloneItems(items []models.OrderedItem) []models.OrderedItem {
	if items == nil {
		return nil
	}
	out := make([]models.OrderedItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// NewSnapshot derives a snapshot from flat server rows. Items are grouped by
// ColumnID and sorted by Position; equal positions fall back to id order so
// the result never depends on row order.
func NewSnapshot(columns []models.Column, items []models.OrderedItem) (Snapshot, error) {
	cols := make([]models.Column, len(columns))
	copy(cols, columns)
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].DisplayOrder != cols[j].DisplayOrder {
			return cols[i].DisplayOrder < cols[j].DisplayOrder
		}
		return cols[i].ID < cols[j].ID
	})

	lists := make(map[types.ColumnID][]models.OrderedItem, len(cols))
	for _, col := range cols {
		if _, dup := lists[col.ID]; dup {
			return Snapshot{}, fmt.Errorf("duplicate column id %q", col.ID)
		}
		lists[col.ID] = []models.OrderedItem{}
	}

	seen := make(map[types.ItemID]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrDuplicateItem, it.ID)
		}
		seen[it.ID] = true
		if _, ok := lists[it.ColumnID]; !ok {
			return Snapshot{}, fmt.Errorf("%w: item %q references column %q", ErrColumnNotFound, it.ID, it.ColumnID)
		}
		lists[it.ColumnID] = append(lists[it.ColumnID], it.Clone())
	}

	for colID := range lists {
		sortByPosition(lists[colID])
	}

	return Snapshot{columns: cols, lists: lists}, nil
}

func sortByPosition(items []models.OrderedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
}
