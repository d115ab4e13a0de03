package board

import (
	"time"

	"github.com/thenoetrevino/crmboard/internal/types"
)

// NoticeLevel is the severity of a user-facing notice
type NoticeLevel int

const (
	// NoticeInfo is a confirmation
	NoticeInfo NoticeLevel = iota
	// NoticeWarning reports a move that was undone as a side effect
	NoticeWarning
	// NoticeError reports a move that was not saved
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeInfo:
		return "info"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a toast-level message for the user
type Notice struct {
	Level        NoticeLevel
	Message      string
	ItemID       types.ItemID
	TransitionID types.TransitionID
	Err          error
	At           time.Time
}

// Notifier receives notices. Notify is called from the outbox goroutine and
// must not block for long.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}
