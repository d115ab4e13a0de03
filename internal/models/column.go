package models

import "github.com/thenoetrevino/crmboard/internal/types"

// Column represents a board column: a pipeline stage for deals or a status
// bucket for tasks. DisplayOrder is fixed at configuration time and never
// changed by a drag.
type Column struct {
	ID           types.ColumnID // Unique identifier for the column
	BoardID      types.BoardID  // Board the column belongs to
	Name         string         // Display name of the column
	DisplayOrder int            // Left-to-right ordering of the column
}
