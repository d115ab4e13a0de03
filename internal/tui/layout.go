package tui

import (
	"fmt"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Board geometry in terminal cells
const (
	boardTop     = 2 // title line and filter line
	columnHeader = 2 // name line and count line
	cardHeight   = 3
	gapHeight    = 1
	slotHeight   = cardHeight + gapHeight
	columnGutter = 1
	minColWidth  = 16
	maxColWidth  = 36
	minBodyRows  = 2 * slotHeight
)

// cardBox is one laid-out card
type cardBox struct {
	Item models.OrderedItem
	Rect kanban.Rect
}

// columnBox is one laid-out column. Gaps has one more rect than Cards:
// Gaps[i] sits just above Cards[i] and the last gap follows the last card.
type columnBox struct {
	Column models.Column
	Hidden int
	Rect   kanban.Rect
	Cards  []cardBox
	Gaps   []kanban.Rect
}

// Layout places the visible board on a grid and derives its drop zones.
// Coordinates are absolute cells within the rendered board.
type Layout struct {
	Width     int
	Height    int
	ColWidth  int
	Columns   []columnBox
	Droppable []kanban.Droppable
}

// columnWidth splits width evenly between n columns within the min/max bounds
func columnWidth(width, n int) int {
	if n <= 0 {
		return maxColWidth
	}
	w := (width - columnGutter*(n-1)) / n
	return min(max(w, minColWidth), maxColWidth)
}

// NewLayout lays out view for a terminal of the given size
func NewLayout(view kanban.View, width, height int) Layout {
	cols := view.Columns()
	l := Layout{Width: width, Height: height, ColWidth: columnWidth(width, len(cols))}

	tallest := 0
	for _, col := range cols {
		tallest = max(tallest, len(view.Column(col.ID)))
	}
	body := max(tallest*slotHeight+gapHeight+cardHeight, height-boardTop-columnHeader-2, minBodyRows)

	for i, col := range cols {
		x := float64(i * (l.ColWidth + columnGutter))
		top := float64(boardTop + columnHeader)
		box := columnBox{
			Column: col,
			Hidden: view.Hidden(col.ID),
			Rect:   kanban.Rect{X: x, Y: boardTop, W: float64(l.ColWidth), H: float64(columnHeader + body)},
		}

		items := view.Column(col.ID)
		for j, it := range items {
			y := top + float64(j*slotHeight)
			box.Gaps = append(box.Gaps, kanban.Rect{X: x, Y: y, W: float64(l.ColWidth), H: gapHeight})
			box.Cards = append(box.Cards, cardBox{
				Item: it,
				Rect: kanban.Rect{X: x, Y: y + gapHeight, W: float64(l.ColWidth), H: cardHeight},
			})
		}
		endY := top + float64(len(items)*slotHeight)
		box.Gaps = append(box.Gaps, kanban.Rect{X: x, Y: endY, W: float64(l.ColWidth), H: gapHeight})

		l.Columns = append(l.Columns, box)
		l.Droppable = append(l.Droppable, box.zones(endY+gapHeight)...)
	}
	return l
}

// zones returns the drop zones of one column; the end zone starts at endY
func (c columnBox) zones(endY float64) []kanban.Droppable {
	id := c.Column.ID
	zones := []kanban.Droppable{{
		ID:       fmt.Sprintf("column:%s", id),
		Kind:     kanban.ZoneColumn,
		ColumnID: id,
		Rect:     c.Rect,
	}}
	for i, g := range c.Gaps {
		zones = append(zones, kanban.Droppable{
			ID:       fmt.Sprintf("gap:%s:%d", id, i),
			Kind:     kanban.ZoneGap,
			ColumnID: id,
			Index:    i,
			Rect:     g,
		})
	}
	for i, card := range c.Cards {
		zones = append(zones, kanban.Droppable{
			ID:       fmt.Sprintf("item:%s", card.Item.ID),
			Kind:     kanban.ZoneItem,
			ColumnID: id,
			Index:    i,
			ItemID:   card.Item.ID,
			Rect:     card.Rect,
		})
	}
	if bottom := c.Rect.Y + c.Rect.H; bottom > endY {
		zones = append(zones, kanban.Droppable{
			ID:       fmt.Sprintf("end:%s", id),
			Kind:     kanban.ZoneColumnEnd,
			ColumnID: id,
			Rect:     kanban.Rect{X: c.Rect.X, Y: endY, W: c.Rect.W, H: bottom - endY},
		})
	}
	return zones
}

// Column returns the laid-out column at index i
func (l Layout) Column(i int) (columnBox, bool) {
	if i < 0 || i >= len(l.Columns) {
		return columnBox{}, false
	}
	return l.Columns[i], true
}

// ColumnIndex returns the display index of a column id, or -1
func (l Layout) ColumnIndex(id types.ColumnID) int {
	for i, c := range l.Columns {
		if c.Column.ID == id {
			return i
		}
	}
	return -1
}

// Locate returns the column and row of a visible card
func (l Layout) Locate(id types.ItemID) (col, row int, ok bool) {
	for i, c := range l.Columns {
		for j, card := range c.Cards {
			if card.Item.ID == id {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// CardCenter is where the pointer rests while it selects the card at row
func (l Layout) CardCenter(col, row int) (kanban.Point, bool) {
	c, ok := l.Column(col)
	if !ok || row < 0 || row >= len(c.Cards) {
		return kanban.Point{}, false
	}
	return c.Cards[row].Rect.Center(), true
}

// GapCenter is where the pointer rests while a drag targets slot
func (l Layout) GapCenter(col, slot int) (kanban.Point, bool) {
	c, ok := l.Column(col)
	if !ok || slot < 0 || slot >= len(c.Gaps) {
		return kanban.Point{}, false
	}
	return c.Gaps[slot].Center(), true
}

// CardAt returns the visible card under p
func (l Layout) CardAt(p kanban.Point) (models.OrderedItem, bool) {
	for _, c := range l.Columns {
		for _, card := range c.Cards {
			if card.Rect.Contains(p) {
				return card.Item, true
			}
		}
	}
	return models.OrderedItem{}, false
}
