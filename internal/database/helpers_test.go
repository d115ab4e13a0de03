package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/thenoetrevino/crmboard/internal/events"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"

	_ "modernc.org/sqlite"
)

// ============================================================================
// Test Helpers
// ============================================================================

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// recordingPublisher collects sent events
type recordingPublisher struct {
	mu   sync.Mutex
	sent []events.Event
}

func (p *recordingPublisher) Connect(ctx context.Context) error { return nil }
func (p *recordingPublisher) SendEvent(e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, e)
	return nil
}
func (p *recordingPublisher) Listen(ctx context.Context) (<-chan events.Event, error) {
	return nil, nil
}
func (p *recordingPublisher) Subscribe(boardID types.BoardID) error { return nil }
func (p *recordingPublisher) Close() error                          { return nil }

func (p *recordingPublisher) recorded() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.sent...)
}

// fixture is a board with todo [a, b, c] and done [d] plus a second board
type fixture struct {
	repo       *BoardRepo
	todo, done types.ColumnID
	other      types.ColumnID
	items      map[string]types.ItemID
}

func setupFixture(t *testing.T, pub events.EventPublisher) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := NewBoardRepo(setupTestDB(t), pub)

	mustBoard := func(id types.BoardID) {
		if _, err := repo.CreateBoard(ctx, models.Board{ID: id, Name: string(id), Kind: models.KindTask}); err != nil {
			t.Fatalf("CreateBoard(%s) failed: %v", id, err)
		}
	}
	mustColumn := func(b types.BoardID, name string) types.ColumnID {
		c, err := repo.CreateColumn(ctx, b, name)
		if err != nil {
			t.Fatalf("CreateColumn(%s) failed: %v", name, err)
		}
		return c.ID
	}

	mustBoard("main")
	mustBoard("other")
	f := &fixture{
		repo:  repo,
		todo:  mustColumn("main", "Todo"),
		done:  mustColumn("main", "Done"),
		other: mustColumn("other", "Elsewhere"),
		items: map[string]types.ItemID{},
	}

	add := func(col types.ColumnID, title string) {
		item, err := repo.CreateItem(ctx, col, models.Payload{Title: title}, models.AppendPosition)
		if err != nil {
			t.Fatalf("CreateItem(%s) failed: %v", title, err)
		}
		f.items[title] = item.ID
	}
	add(f.todo, "a")
	add(f.todo, "b")
	add(f.todo, "c")
	add(f.done, "d")
	return f
}

// columnTitles reads a column back from the store in position order and
// checks positions are dense
func columnTitles(t *testing.T, repo *BoardRepo, boardID types.BoardID, col types.ColumnID) []string {
	t.Helper()
	data, err := repo.FetchBoard(context.Background(), boardID)
	if err != nil {
		t.Fatalf("FetchBoard failed: %v", err)
	}
	var titles []string
	for _, it := range data.Items {
		if it.ColumnID != col {
			continue
		}
		if it.Position != len(titles) {
			t.Errorf("Item %s at position %d, want %d", it.Payload.Title, it.Position, len(titles))
		}
		titles = append(titles, it.Payload.Title)
	}
	return titles
}

// ============================================================================
// withTx
// ============================================================================

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO boards (id, name, kind) VALUES ('b1', 'B1', 'deal')`)
		return err
	})
	if err != nil {
		t.Fatalf("Expected transaction to succeed, got error: %v", err)
	}

	var count int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM boards").Scan(&count)
	if count != 1 {
		t.Errorf("Expected 1 board, got %d", count)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	expectedErr := errors.New("intentional error")

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO boards (id, name, kind) VALUES ('b1', 'B1', 'deal')`); err != nil {
			return err
		}
		return expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("Expected intentional error, got %v", err)
	}

	var count int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM boards").Scan(&count)
	if count != 0 {
		t.Errorf("Expected rollback to leave 0 boards, got %d", count)
	}
	t.Logf("✓ Transaction rolled back")
}

func TestMigrationsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := runMigrations(context.Background(), db); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}
