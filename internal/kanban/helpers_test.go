package kanban

import (
	"testing"

	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// col describes one column of a test board by its item ids
type col struct {
	id    types.ColumnID
	items []types.ItemID
}

// ids is shorthand for a list of item ids
func ids(v ...string) []types.ItemID {
	out := make([]types.ItemID, len(v))
	for i, s := range v {
		out[i] = types.ItemID(s)
	}
	return out
}

// boardRows turns column descriptions into server rows with dense positions
func boardRows(cols ...col) ([]models.Column, []models.OrderedItem) {
	columns := make([]models.Column, 0, len(cols))
	var items []models.OrderedItem
	for i, c := range cols {
		columns = append(columns, models.Column{ID: c.id, BoardID: "b1", Name: string(c.id), DisplayOrder: i})
		for pos, id := range c.items {
			items = append(items, models.OrderedItem{
				ID:       id,
				ColumnID: c.id,
				Position: pos,
				Payload:  models.Payload{Title: "item " + string(id), Kind: models.KindTask},
			})
		}
	}
	return columns, items
}

// testSnapshot builds a snapshot or fails the test
func testSnapshot(t *testing.T, cols ...col) Snapshot {
	t.Helper()
	columns, items := boardRows(cols...)
	snap, err := NewSnapshot(columns, items)
	if err != nil {
		t.Fatalf("Failed to build snapshot: %v", err)
	}
	return snap
}

// testStore builds a loaded store or fails the test
func testStore(t *testing.T, cols ...col) *Store {
	t.Helper()
	columns, items := boardRows(cols...)
	s := NewStore()
	if err := s.LoadFromServer(columns, items); err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}
	return s
}

// itemIDs extracts ids in list order
func itemIDs(items []models.OrderedItem) []types.ItemID {
	out := make([]types.ItemID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// assertDense checks positions are 0..n-1 and column ids match the list
func assertDense(t *testing.T, columnID types.ColumnID, items []models.OrderedItem) {
	t.Helper()
	for i, it := range items {
		if it.Position != i {
			t.Errorf("column %s: item %s has position %d, want %d", columnID, it.ID, it.Position, i)
		}
		if it.ColumnID != columnID {
			t.Errorf("column %s: item %s claims column %s", columnID, it.ID, it.ColumnID)
		}
	}
}
