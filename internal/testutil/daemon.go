package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/thenoetrevino/crmboard/internal/daemon"
	"github.com/thenoetrevino/crmboard/internal/events"
)

// GetTestSocketPath generates a unique temporary socket path for testing
func GetTestSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test-crmboard.sock")
}

// SetupTestDaemon starts a daemon on a temporary socket. It is stopped on
// test cleanup.
func SetupTestDaemon(t *testing.T) (*daemon.Server, string) {
	t.Helper()

	socketPath := GetTestSocketPath(t)
	server, err := daemon.NewServer(socketPath, daemon.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create test daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Start(ctx); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Timeout waiting for daemon to stop")
		}
	})
	return server, socketPath
}

// SetupTestClient creates an event client connected to socketPath with a
// short debounce. Cleanup is automatic via t.Cleanup().
func SetupTestClient(t *testing.T, socketPath string) *events.Client {
	t.Helper()

	client, err := events.NewClient(socketPath, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("Failed to connect test client: %v", err)
	}
	return client
}

// WaitForEvent waits for an event on a channel with timeout
func WaitForEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) events.Event {
	t.Helper()

	select {
	case event, ok := <-ch:
		if !ok {
			t.Fatal("Event channel closed unexpectedly")
		}
		return event
	case <-time.After(timeout):
		t.Fatalf("Timeout waiting for event after %v", timeout)
		return events.Event{}
	}
}

// WaitForNoEvent verifies that no event arrives within timeout
func WaitForNoEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) {
	t.Helper()

	select {
	case event, ok := <-ch:
		if ok {
			t.Fatalf("Unexpected event received: %+v", event)
		}
	case <-time.After(timeout):
	}
}

// Eventually polls cond until it holds or timeout passes
func Eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
