package models

import (
	"time"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// Board is a container for columns and their items.
// A tenant owns many boards; each board is either a deal pipeline or a task board.
type Board struct {
	ID        types.BoardID
	TenantID  string
	Name      string
	Kind      ItemKind
	CreatedAt time.Time
}

// BoardData is the full contents of a board as returned by the remote store
type BoardData struct {
	Board   Board
	Columns []Column
	Items   []OrderedItem
}
