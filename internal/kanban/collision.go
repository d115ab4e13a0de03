package kanban

import (
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Point is a pointer position in layout coordinates
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned droppable area. It contains the points in
// [X, X+W) x [Y, Y+H).
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Center returns the middle of r
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) distance2(p Point) float64 {
	c := r.Center()
	dx, dy := p.X-c.X, p.Y-c.Y
	return dx*dx + dy*dy
}

// ZoneKind is the kind of a droppable zone
type ZoneKind int

const (
	// ZoneColumn is a whole column body
	ZoneColumn ZoneKind = iota
	// ZoneColumnEnd is the trailing area after the last card
	ZoneColumnEnd
	// ZoneItem is a card
	ZoneItem
	// ZoneGap is the slot between two consecutive cards
	ZoneGap
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneColumn:
		return "column"
	case ZoneColumnEnd:
		return "column-end"
	case ZoneItem:
		return "item"
	case ZoneGap:
		return "gap"
	default:
		return "unknown"
	}
}

// specificity orders zone kinds for tie breaking; higher wins
func (k ZoneKind) specificity() int {
	switch k {
	case ZoneGap:
		return 3
	case ZoneItem:
		return 2
	case ZoneColumnEnd:
		return 1
	default:
		return 0
	}
}

// Droppable is one registered drop zone.
// For gaps, Index is the slot in the column's full list (dragged item
// included): gap i sits just before the i-th card. For item zones ItemID
// names the card.
type Droppable struct {
	ID       string
	Kind     ZoneKind
	ColumnID types.ColumnID
	Index    int
	ItemID   types.ItemID
	Rect     Rect
}

// Hit returns the qualifying zone nearest to the pointer, if any
func Hit(pointer Point, zones []Droppable, snap Snapshot) (Droppable, bool) {
	var (
		best  Droppable
		bestD float64
		found bool
	)
	for _, z := range zones {
		if !z.Rect.Contains(pointer) || !snap.HasColumn(z.ColumnID) {
			continue
		}
		d := z.Rect.distance2(pointer)
		if !found || closer(z, d, best, bestD) {
			best, bestD, found = z, d, true
		}
	}
	return best, found
}

func closer(z Droppable, d float64, best Droppable, bestD float64) bool {
	if d != bestD {
		return d < bestD
	}
	if zs, bs := z.Kind.specificity(), best.Kind.specificity(); zs != bs {
		return zs > bs
	}
	return z.ID < best.ID
}

// Resolve maps the pointer to a drop intent for activeID.
// The returned index counts the target column's items with activeID removed.
// A pointer outside every zone yields the none intent.
func Resolve(activeID types.ItemID, pointer Point, zones []Droppable, snap Snapshot) DropIntent {
	zone, ok := Hit(pointer, zones, snap)
	if !ok {
		return NoIntent()
	}

	items := snap.lists[zone.ColumnID]
	source := -1
	others := make([]types.ItemID, 0, len(items))
	for i, it := range items {
		if it.ID == activeID {
			source = i
			continue
		}
		others = append(others, it.ID)
	}

	switch zone.Kind {
	case ZoneGap:
		idx := zone.Index
		if source >= 0 && idx > source {
			idx--
		}
		return ColumnIntent(zone.ColumnID, clamp(idx, len(others)))

	case ZoneItem:
		if zone.ItemID == activeID {
			if source >= 0 {
				return ColumnIntent(zone.ColumnID, source)
			}
			return NoIntent()
		}
		idx := indexOf(others, zone.ItemID)
		if idx < 0 {
			return NoIntent()
		}
		if pointer.Y >= zone.Rect.Center().Y {
			idx++
		}
		return ColumnIntent(zone.ColumnID, idx)

	case ZoneColumnEnd:
		return ColumnIntent(zone.ColumnID, len(others))

	default:
		if len(others) == 0 {
			return ColumnIntent(zone.ColumnID, 0)
		}
		above := 0
		for _, z := range zones {
			if z.Kind != ZoneItem || z.ColumnID != zone.ColumnID || z.ItemID == activeID {
				continue
			}
			if indexOf(others, z.ItemID) >= 0 && z.Rect.Center().Y < pointer.Y {
				above++
			}
		}
		return ColumnIntent(zone.ColumnID, clamp(above, len(others)))
	}
}

func indexOf(ids []types.ItemID, id types.ItemID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func clamp(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}
