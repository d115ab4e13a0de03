package kanban

import (
	"time"

	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Filter selects which items a board view shows. Zero values match everything.
type Filter struct {
	Priorities []types.PriorityID
	Types      []types.TypeID

	// From and To bound the due date window, inclusive
	From *time.Time
	To   *time.Time

	// Status is a status tab; "overdue" matches open items due before Now
	Status string
	Now    time.Time
}

// Active reports whether the filter hides anything
func (f Filter) Active() bool {
	return len(f.Priorities) > 0 || len(f.Types) > 0 || f.From != nil || f.To != nil || f.Status != ""
}

// Match reports whether an item passes the filter
func (f Filter) Match(it models.OrderedItem) bool {
	p := it.Payload
	if len(f.Priorities) > 0 && !contains(f.Priorities, p.PriorityID) {
		return false
	}
	if len(f.Types) > 0 && !contains(f.Types, p.TypeID) {
		return false
	}
	if f.From != nil || f.To != nil {
		if p.DueAt == nil {
			return false
		}
		if f.From != nil && p.DueAt.Before(*f.From) {
			return false
		}
		if f.To != nil && p.DueAt.After(*f.To) {
			return false
		}
	}
	switch f.Status {
	case "":
	case models.StatusOverdue:
		if p.Status == models.StatusDone || p.DueAt == nil || !p.DueAt.Before(f.Now) {
			return false
		}
	default:
		if p.Status != f.Status {
			return false
		}
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// View is a read-only filtered projection of a snapshot.
// It preserves order and never changes Position or ColumnID.
type View struct {
	snap   Snapshot
	filter Filter
}

// NewView projects snap through f
func NewView(snap Snapshot, f Filter) View {
	return View{snap: snap, filter: f}
}

// Filter returns the filter the view applies
func (v View) Filter() Filter {
	return v.filter
}

// Columns returns the board columns in display order
func (v View) Columns() []models.Column {
	return v.snap.Columns()
}

// Column returns the visible items of a column in position order
func (v View) Column(id types.ColumnID) []models.OrderedItem {
	var out []models.OrderedItem
	for _, it := range v.snap.lists[id] {
		if v.filter.Match(it) {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Snapshot returns the visible items as a snapshot, the coordinate space the
// resolver works in when zones are laid out from this view
func (v View) Snapshot() Snapshot {
	lists := make(map[types.ColumnID][]models.OrderedItem, len(v.snap.lists))
	for colID := range v.snap.lists {
		items := v.Column(colID)
		if items == nil {
			items = []models.OrderedItem{}
		}
		lists[colID] = items
	}
	return Snapshot{columns: v.snap.Columns(), lists: lists, version: v.snap.version}
}

// Hidden returns how many items of a column the filter hides
func (v View) Hidden(id types.ColumnID) int {
	return len(v.snap.lists[id]) - len(v.Column(id))
}

// Translate maps an insertion index in the visible list of columnID (with
// draggedID removed) to the index in the unfiltered list (with draggedID
// removed). Index i lands just before the i-th visible item; an index past
// the last visible item lands right after it, so hidden items that follow
// keep their place. The dragged item's own visible slot maps to its own
// unfiltered slot.
func (v View) Translate(columnID types.ColumnID, draggedID types.ItemID, visibleIndex int) int {
	full := make([]models.OrderedItem, 0, len(v.snap.lists[columnID]))
	own, ownVisible := -1, -1
	for _, it := range v.snap.lists[columnID] {
		if it.ID == draggedID {
			if v.filter.Match(it) {
				own = len(full)
			}
			continue
		}
		full = append(full, it)
	}

	var visible []int
	for i, it := range full {
		if i == own {
			ownVisible = len(visible)
		}
		if v.filter.Match(it) {
			visible = append(visible, i)
		}
	}
	if own >= 0 && own == len(full) {
		ownVisible = len(visible)
	}

	switch {
	case visibleIndex < 0:
		visibleIndex = 0
	case visibleIndex > len(visible):
		visibleIndex = len(visible)
	}

	// Dropping a visible item back on its own slot keeps it where it was,
	// whichever hidden neighbours surround it
	if own >= 0 && ownVisible == visibleIndex {
		return own
	}
	if visibleIndex < len(visible) {
		return visible[visibleIndex]
	}
	if len(visible) == 0 {
		return len(full)
	}
	return visible[len(visible)-1] + 1
}

// TranslateIntent rewrites a visible-list intent into an unfiltered one
func (v View) TranslateIntent(draggedID types.ItemID, intent DropIntent) DropIntent {
	if intent.IsNone() || !v.filter.Active() {
		return intent
	}
	return ColumnIntent(intent.ColumnID, v.Translate(intent.ColumnID, draggedID, intent.Index))
}
