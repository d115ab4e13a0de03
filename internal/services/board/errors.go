package board

import (
	"errors"

	"github.com/thenoetrevino/crmboard/internal/kanban"
)

// Board service errors
var (
	// ErrClosed indicates a commit after Close
	ErrClosed = errors.New("board service is closed")

	// ErrRejected is kanban.ErrRejected, re-exported for gateway callers
	ErrRejected = kanban.ErrRejected

	// ErrQueueFull indicates too many moves are still waiting to be saved
	ErrQueueFull = errors.New("too many unsaved moves")

	// ErrNotLoaded indicates an operation before the first successful Refresh
	ErrNotLoaded = errors.New("board has not been loaded")

	// ErrInvalidBoardID indicates an empty board id
	ErrInvalidBoardID = errors.New("invalid board ID")
)
