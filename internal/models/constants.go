package models

// ============================================================================
// STATUS TAB CONSTANTS
// ============================================================================

// Status tabs used by task boards
const (
	StatusOpen    = "open"
	StatusOverdue = "overdue"
	StatusDone    = "done"
)

// ============================================================================
// POSITION CONSTANTS
// ============================================================================

// AppendPosition asks the store to place a new item after the last item of its column
const AppendPosition = -1
