package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/thenoetrevino/crmboard/internal/events"
	"github.com/thenoetrevino/crmboard/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Test Helpers
// ============================================================================

func getTestSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test-crmboard.sock")
}

func setupTestDaemon(t *testing.T, opts Options) (*Server, string) {
	t.Helper()
	socketPath := getTestSocketPath(t)

	server, err := NewServer(socketPath, opts)
	if err != nil {
		t.Fatalf("Failed to create test daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	return server, socketPath
}

func connectRawClient(t *testing.T, socketPath string) (net.Conn, *json.Encoder, *json.Decoder) {
	t.Helper()

	conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", socketPath)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn, json.NewEncoder(conn), json.NewDecoder(conn)
}

func sendSubscribe(t *testing.T, encoder *json.Encoder, boardID types.BoardID) {
	t.Helper()
	msg := events.Message{
		Version:   events.ProtocolVersion,
		Type:      events.MessageSubscribe,
		Subscribe: &events.SubscribeMessage{BoardID: boardID},
	}
	if err := encoder.Encode(msg); err != nil {
		t.Fatalf("Failed to send subscribe: %v", err)
	}
}

func setupTestClient(t *testing.T, socketPath string, boardID types.BoardID) (*events.Client, <-chan events.Event) {
	t.Helper()
	client, err := events.NewClient(socketPath, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := client.Subscribe(boardID); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	ch, err := client.Listen(context.Background())
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	return client, ch
}

// waitForClients polls until the daemon has registered n clients with a
// subscription applied
func waitForClients(t *testing.T, server *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if server.getClientCount() == n {
			// Give handleClient a moment to apply the subscription
			time.Sleep(20 * time.Millisecond)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients, have %d", n, server.getClientCount())
}

func waitForEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) events.Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		if !ok {
			t.Fatal("Channel closed")
		}
		return event
	case <-time.After(timeout):
		t.Fatalf("Timeout waiting for event")
		return events.Event{}
	}
}

func waitForNoEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) {
	t.Helper()
	select {
	case event := <-ch:
		t.Fatalf("Unexpected event: %+v", event)
	case <-time.After(timeout):
	}
}

// ============================================================================
// Server Initialization Tests
// ============================================================================

func TestNewServer_CreatesNestedDirectories(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "subdirs", "crmboard.sock")

	server, err := NewServer(nestedPath, Options{})
	if err != nil {
		t.Fatalf("Expected NewServer to create nested directories, got error: %v", err)
	}
	defer func() { _ = server.Shutdown() }()

	if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
		t.Error("Expected socket file to be created in nested directory")
	}
	t.Logf("✓ Nested directories created successfully: %s", nestedPath)
}

func TestNewServer_StaleSocketCleanup(t *testing.T) {
	socketPath := getTestSocketPath(t)

	f, err := os.Create(socketPath)
	if err != nil {
		t.Fatalf("Failed to create stale socket file: %v", err)
	}
	_ = f.Close()

	server, err := NewServer(socketPath, Options{})
	if err != nil {
		t.Fatalf("Expected NewServer to replace stale socket, got error: %v", err)
	}
	defer func() { _ = server.Shutdown() }()

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatalf("Expected socket to exist: %v", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		t.Error("Expected stale file to be replaced by a socket")
	}
}

func TestOptionsDefaults(t *testing.T) {
	got := Options{ClientBuffer: 3}.withDefaults()
	want := DefaultOptions()
	want.ClientBuffer = 3
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}
}

// ============================================================================
// Broadcast Tests
// ============================================================================

func TestBroadcast_RoutesByBoard(t *testing.T) {
	server, socketPath := setupTestDaemon(t, Options{})

	publisher, publisherCh := setupTestClient(t, socketPath, "pipeline")
	_, sameBoardCh := setupTestClient(t, socketPath, "pipeline")
	_, otherBoardCh := setupTestClient(t, socketPath, "support")
	_, allBoardsCh := setupTestClient(t, socketPath, "")
	waitForClients(t, server, 4)

	if err := publisher.SendEvent(events.Event{Type: events.EventBoardChanged, BoardID: "pipeline", ItemID: "deal-1"}); err != nil {
		t.Fatalf("SendEvent failed: %v", err)
	}

	evt := waitForEvent(t, sameBoardCh, 2*time.Second)
	if evt.BoardID != "pipeline" || evt.ItemID != "deal-1" {
		t.Errorf("Unexpected event: %+v", evt)
	}
	if evt.SequenceID != 1 {
		t.Errorf("Expected sequence 1, got %d", evt.SequenceID)
	}
	waitForEvent(t, allBoardsCh, 2*time.Second)

	waitForNoEvent(t, otherBoardCh, 150*time.Millisecond)
	waitForNoEvent(t, publisherCh, 50*time.Millisecond)

	snap := server.Metrics().GetSnapshot()
	if snap.EventsReceived != 1 || snap.Broadcasts != 1 {
		t.Errorf("Unexpected metrics: %+v", snap)
	}
	t.Logf("✓ Event routed to board subscribers only: %+v", snap)
}

func TestBroadcast_SequenceIncreases(t *testing.T) {
	server, socketPath := setupTestDaemon(t, Options{})
	_, ch := setupTestClient(t, socketPath, "")
	waitForClients(t, server, 1)

	for i := 0; i < 3; i++ {
		if err := server.Broadcast(events.Event{Type: events.EventBoardChanged, BoardID: "pipeline"}); err != nil {
			t.Fatalf("Broadcast failed: %v", err)
		}
	}

	var last int64
	for i := 0; i < 3; i++ {
		evt := waitForEvent(t, ch, 2*time.Second)
		if evt.SequenceID <= last {
			t.Errorf("Sequence went from %d to %d", last, evt.SequenceID)
		}
		last = evt.SequenceID
	}
}

func TestBroadcast_AfterShutdown(t *testing.T) {
	server, err := NewServer(getTestSocketPath(t), Options{})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := server.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if err := server.Broadcast(events.Event{Type: events.EventBoardChanged}); err == nil {
		t.Error("Expected Broadcast to fail after shutdown")
	}
	// Second shutdown is a no-op
	if err := server.Shutdown(); err != nil {
		t.Errorf("Second Shutdown returned %v", err)
	}
}

// ============================================================================
// Health Tests
// ============================================================================

func TestHealth_PingsClients(t *testing.T) {
	server, socketPath := setupTestDaemon(t, Options{PingInterval: 20 * time.Millisecond, StaleAfter: time.Minute})
	conn, enc, dec := connectRawClient(t, socketPath)
	sendSubscribe(t, enc, "pipeline")
	waitForClients(t, server, 1)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg events.Message
	if err := dec.Decode(&msg); err != nil {
		t.Fatalf("Failed to read ping: %v", err)
	}
	if msg.Type != events.MessagePing {
		t.Errorf("Expected ping, got %+v", msg)
	}
}

func TestHealth_RemovesStaleClients(t *testing.T) {
	server, socketPath := setupTestDaemon(t, Options{PingInterval: 20 * time.Millisecond, StaleAfter: 50 * time.Millisecond})
	conn, enc, dec := connectRawClient(t, socketPath)
	sendSubscribe(t, enc, "pipeline")
	waitForClients(t, server, 1)

	// Never answer pings; the daemon must hang up
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg events.Message
		err := dec.Decode(&msg)
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatal("Stale client was not removed")
			}
		}
		break
	}

	if n := server.getClientCount(); n != 0 {
		t.Errorf("Expected 0 clients, got %d", n)
	}
}

func TestShutdown_DisconnectsClients(t *testing.T) {
	socketPath := getTestSocketPath(t)
	server, err := NewServer(socketPath, Options{})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- server.Start(context.Background()) }()

	conn, _, dec := connectRawClient(t, socketPath)
	waitForClients(t, server, 1)

	if err := server.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg events.Message
	if err := dec.Decode(&msg); err == nil {
		t.Error("Expected connection to be closed")
	}
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("Expected socket file to be removed")
	}
	t.Logf("✓ Shutdown closed clients and removed socket")
}
