package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// BoardSummary is one row of `board list`
type BoardSummary struct {
	ID       types.BoardID   `json:"id"`
	Name     string          `json:"name"`
	Kind     models.ItemKind `json:"kind"`
	TenantID string          `json:"tenant_id,omitempty"`
}

func (b BoardSummary) GetID() string {
	return string(b.ID)
}

// BoardList is the result of `board list`
type BoardList []BoardSummary

func (l BoardList) String() string {
	if len(l) == 0 {
		return "No boards. Run `crmboard seed` to create the demo boards.\n"
	}
	var sb strings.Builder
	for _, b := range l {
		fmt.Fprintf(&sb, "%-12s %-6s %s\n", b.ID, b.Kind, b.Name)
	}
	return sb.String()
}

// GetID returns one id per line for quiet mode
func (l BoardList) GetID() string {
	ids := make([]string, len(l))
	for i, b := range l {
		ids[i] = string(b.ID)
	}
	return strings.Join(ids, "\n")
}

func (l BoardList) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Boards\n\n| ID | Kind | Name |\n|---|---|---|\n")
	for _, b := range l {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", b.ID, b.Kind, b.Name)
	}
	return sb.String()
}

// CardInfo is one item as printed by the CLI
type CardInfo struct {
	ID       types.ItemID `json:"id"`
	Position int          `json:"position"`
	Title    string       `json:"title"`
	Value    string       `json:"value,omitempty"`
	Assignee string       `json:"assignee,omitempty"`
	Priority string       `json:"priority,omitempty"`
	Status   string       `json:"status,omitempty"`
	DueAt    *time.Time   `json:"due_at,omitempty"`
}

// ColumnInfo is one column as printed by the CLI
type ColumnInfo struct {
	ID     types.ColumnID `json:"id"`
	Name   string         `json:"name"`
	Items  []CardInfo     `json:"items"`
	Hidden int            `json:"hidden,omitempty"`
	Totals []models.Total `json:"totals,omitempty"`
}

// BoardDetail is the result of `board show`
type BoardDetail struct {
	Board    BoardSummary `json:"board"`
	Columns  []ColumnInfo `json:"columns"`
	Filtered bool         `json:"filtered"`
}

func (d BoardDetail) GetID() string {
	return string(d.Board.ID)
}

// NewBoardDetail builds the printable form of a board through view
func NewBoardDetail(b models.Board, view kanban.View) BoardDetail {
	d := BoardDetail{
		Board:    BoardSummary{ID: b.ID, Name: b.Name, Kind: b.Kind, TenantID: b.TenantID},
		Filtered: view.Filter().Active(),
	}
	for _, col := range view.Columns() {
		items := view.Column(col.ID)
		info := ColumnInfo{
			ID:     col.ID,
			Name:   col.Name,
			Items:  make([]CardInfo, 0, len(items)),
			Hidden: view.Hidden(col.ID),
			Totals: models.ColumnTotals(items),
		}
		for _, it := range items {
			info.Items = append(info.Items, newCardInfo(it))
		}
		d.Columns = append(d.Columns, info)
	}
	return d
}

func newCardInfo(it models.OrderedItem) CardInfo {
	p := it.Payload
	c := CardInfo{
		ID:       it.ID,
		Position: it.Position,
		Title:    p.Title,
		Assignee: p.Assignee,
		DueAt:    p.DueAt,
	}
	if p.Kind == models.KindDeal {
		c.Value = models.Total{Currency: p.Currency, Amount: p.Value}.String()
	} else {
		c.Priority = PriorityName(p.PriorityID)
		c.Status = p.Status
	}
	return c
}

func (c CardInfo) details() string {
	var parts []string
	for _, s := range []string{c.Value, c.Priority, c.Status, c.Assignee} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if c.DueAt != nil {
		parts = append(parts, "due "+c.DueAt.Format(time.DateOnly))
	}
	return strings.Join(parts, ", ")
}

func (d BoardDetail) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", d.Board.Name, d.Board.ID)
	for _, col := range d.Columns {
		fmt.Fprintf(&sb, "\n%s [%d]", col.Name, len(col.Items))
		if col.Hidden > 0 {
			fmt.Fprintf(&sb, " +%d hidden", col.Hidden)
		}
		for _, t := range col.Totals {
			fmt.Fprintf(&sb, " %s", t)
		}
		sb.WriteString("\n")
		for _, c := range col.Items {
			fmt.Fprintf(&sb, "  %d. %s", c.Position, c.Title)
			if det := c.details(); det != "" {
				fmt.Fprintf(&sb, " (%s)", det)
			}
			fmt.Fprintf(&sb, " [%s]\n", c.ID)
		}
	}
	return sb.String()
}

func (d BoardDetail) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.Board.Name)
	if d.Filtered {
		sb.WriteString("_Filtered view_\n\n")
	}
	for _, col := range d.Columns {
		fmt.Fprintf(&sb, "## %s (%d)\n\n", col.Name, len(col.Items))
		if len(col.Totals) > 0 {
			totals := make([]string, len(col.Totals))
			for i, t := range col.Totals {
				totals[i] = t.String()
			}
			fmt.Fprintf(&sb, "**Total:** %s\n\n", strings.Join(totals, ", "))
		}
		if len(col.Items) == 0 {
			sb.WriteString("_empty_\n\n")
			continue
		}
		for _, c := range col.Items {
			fmt.Fprintf(&sb, "- **%s**", c.Title)
			if det := c.details(); det != "" {
				fmt.Fprintf(&sb, " %s", det)
			}
			fmt.Fprintf(&sb, " `%s`\n", c.ID)
		}
		if col.Hidden > 0 {
			fmt.Fprintf(&sb, "\n_%d hidden by filter_\n", col.Hidden)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// MoveResult is the result of `item move`
type MoveResult struct {
	ItemID       types.ItemID       `json:"item_id"`
	TransitionID types.TransitionID `json:"transition_id,omitempty"`
	FromColumn   string             `json:"from_column"`
	ToColumn     string             `json:"to_column"`
	Position     int                `json:"position"`
	Moved        bool               `json:"moved"`
}

func (r MoveResult) GetID() string {
	return string(r.ItemID)
}

func (r MoveResult) String() string {
	if !r.Moved {
		return fmt.Sprintf("✓ %s already at %s position %d\n", r.ItemID, r.ToColumn, r.Position)
	}
	return fmt.Sprintf("✓ Moved %s from %s to %s at position %d\n", r.ItemID, r.FromColumn, r.ToColumn, r.Position)
}

// SeedResult is the result of `seed`
type SeedResult struct {
	Created int `json:"created"`
}

func (r SeedResult) String() string {
	if r.Created == 0 {
		return "Demo boards already exist\n"
	}
	return fmt.Sprintf("✓ Created %d demo board(s)\n", r.Created)
}
