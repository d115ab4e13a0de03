package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// ItemKind tells the renderers whether an item is a deal or a task
type ItemKind string

const (
	KindDeal ItemKind = "deal"
	KindTask ItemKind = "task"
)

// Payload is the display data of a board item.
// The reordering engine never reads it; only filters and renderers do.
type Payload struct {
	Title      string
	Kind       ItemKind
	Value      decimal.Decimal // Deal amount, zero for tasks
	Currency   string
	Assignee   string
	DueAt      *time.Time
	PriorityID types.PriorityID
	TypeID     types.TypeID
	Status     string // Status tab for task boards (e.g. "open", "done")
}
