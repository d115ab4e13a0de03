package events

import (
	"errors"
	"io/fs"
	"syscall"
)

// ErrClientClosed is returned by SendEvent after Close
var ErrClientClosed = errors.New("event client is closed")

// ErrQueueFull is returned by SendEvent when the outgoing queue is full
var ErrQueueFull = errors.New("event queue full")

// OfflineCause says why a board runs without live updates
type OfflineCause int

const (
	// CauseNoSocket means nothing was ever started at the socket path
	CauseNoSocket OfflineCause = iota
	// CausePermission means the socket exists but is not ours to open
	CausePermission
	// CauseStaleSocket means the socket file outlived its daemon
	CauseStaleSocket
	// CauseUnreachable covers every other dial failure
	CauseUnreachable
)

// OfflineError explains a failed daemon connection. Boards keep working
// without it; moves made elsewhere only show up on manual refresh.
type OfflineError struct {
	Cause  OfflineCause
	Socket string
	Err    error
}

func (e *OfflineError) Error() string {
	return "live updates off: " + e.Reason()
}

func (e *OfflineError) Unwrap() error {
	return e.Err
}

// Reason is the short status line text for the board footer
func (e *OfflineError) Reason() string {
	switch e.Cause {
	case CauseNoSocket:
		return "daemon not started (run crmboard-daemon)"
	case CausePermission:
		return "no access to " + e.Socket
	case CauseStaleSocket:
		return "stale socket, restart crmboard-daemon"
	default:
		return "daemon unreachable"
	}
}

// Offline classifies a Connect failure against socket
func Offline(socket string, err error) *OfflineError {
	if err == nil {
		return nil
	}

	cause := CauseUnreachable
	var errno syscall.Errno
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cause = CauseNoSocket
	case errors.Is(err, fs.ErrPermission):
		cause = CausePermission
	case errors.As(err, &errno) && errno == syscall.ECONNREFUSED:
		cause = CauseStaleSocket
	}
	return &OfflineError{Cause: cause, Socket: socket, Err: err}
}
