package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/thenoetrevino/crmboard/internal/events"
	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/services/board"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// ============================================================================
// PersistPosition
// ============================================================================

func TestPersistPosition(t *testing.T) {
	tests := []struct {
		name     string
		item     string
		toDone   bool
		position int
		wantTodo []string
		wantDone []string
	}{
		{"reorder within column", "a", false, 2, []string{"b", "c", "a"}, []string{"d"}},
		{"move to top", "c", false, 0, []string{"c", "a", "b"}, []string{"d"}},
		{"same slot", "b", false, 1, []string{"a", "b", "c"}, []string{"d"}},
		{"across columns front", "b", true, 0, []string{"a", "c"}, []string{"b", "d"}},
		{"across columns end", "a", true, 1, []string{"b", "c"}, []string{"d", "a"}},
		{"position clamped", "c", true, 99, []string{"a", "b"}, []string{"d", "c"}},
		{"negative clamped", "c", false, -4, []string{"c", "a", "b"}, []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t, nil)
			target := f.todo
			if tt.toDone {
				target = f.done
			}

			if err := f.repo.PersistPosition(context.Background(), f.items[tt.item], target, tt.position); err != nil {
				t.Fatalf("PersistPosition failed: %v", err)
			}

			if diff := cmp.Diff(tt.wantTodo, columnTitles(t, f.repo, "main", f.todo)); diff != "" {
				t.Errorf("todo mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDone, columnTitles(t, f.repo, "main", f.done)); diff != "" {
				t.Errorf("done mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPersistPosition_Idempotent(t *testing.T) {
	f := setupFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.repo.PersistPosition(ctx, f.items["a"], f.done, 0); err != nil {
			t.Fatalf("PersistPosition #%d failed: %v", i+1, err)
		}
	}

	if diff := cmp.Diff([]string{"a", "d"}, columnTitles(t, f.repo, "main", f.done)); diff != "" {
		t.Errorf("done mismatch (-want +got):\n%s", diff)
	}
	t.Logf("✓ Repeated write left the board unchanged")
}

func TestPersistPosition_Rejected(t *testing.T) {
	f := setupFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		item    types.ItemID
		column  types.ColumnID
		wantErr error
	}{
		{"unknown item", "ghost", f.done, ErrItemNotFound},
		{"unknown column", f.items["a"], "nowhere", ErrColumnNotFound},
		{"column on another board", f.items["a"], f.other, ErrColumnNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.repo.PersistPosition(ctx, tt.item, tt.column, 0)
			if !errors.Is(err, kanban.ErrRejected) {
				t.Errorf("Expected ErrRejected, got %v", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	// Nothing moved
	if diff := cmp.Diff([]string{"a", "b", "c"}, columnTitles(t, f.repo, "main", f.todo)); diff != "" {
		t.Errorf("todo mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistPosition_PublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	f := setupFixture(t, pub)
	before := len(pub.recorded())

	if err := f.repo.PersistPosition(context.Background(), f.items["b"], f.done, 0); err != nil {
		t.Fatalf("PersistPosition failed: %v", err)
	}

	sent := pub.recorded()[before:]
	if len(sent) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(sent))
	}
	want := events.Event{Type: events.EventBoardChanged, BoardID: "main", ItemID: f.items["b"]}
	if diff := cmp.Diff(want, sent[0]); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Reads and creates
// ============================================================================

func TestFetchBoard_RoundTripsPayload(t *testing.T) {
	repo := NewBoardRepo(setupTestDB(t), nil)
	ctx := context.Background()

	if _, err := repo.CreateBoard(ctx, models.Board{ID: "deals", Name: "Deals", Kind: models.KindDeal}); err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	col, err := repo.CreateColumn(ctx, "deals", "Lead")
	if err != nil {
		t.Fatalf("CreateColumn failed: %v", err)
	}

	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := models.Payload{
		Title:      "Acme",
		Kind:       models.KindDeal,
		Value:      decimal.RequireFromString("1234.56"),
		Currency:   "EUR",
		Assignee:   "dana",
		DueAt:      &due,
		PriorityID: types.PriorityHigh,
		TypeID:     types.TaskTypeFeature,
		Status:     models.StatusOpen,
	}
	created, err := repo.CreateItem(ctx, col.ID, payload, models.AppendPosition)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	data, err := repo.FetchBoard(ctx, "deals")
	if err != nil {
		t.Fatalf("FetchBoard failed: %v", err)
	}
	if len(data.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(data.Items))
	}
	got := data.Items[0]
	if got.ID != created.ID || got.ColumnID != col.ID || got.Position != 0 {
		t.Errorf("Unexpected placement: %+v", got)
	}
	if !got.Payload.Value.Equal(payload.Value) {
		t.Errorf("Value = %s, want %s", got.Payload.Value, payload.Value)
	}
	if got.Payload.DueAt == nil || !got.Payload.DueAt.Equal(due) {
		t.Errorf("DueAt = %v, want %v", got.Payload.DueAt, due)
	}
	if got.Payload.PriorityID != types.PriorityHigh || got.Payload.Assignee != "dana" {
		t.Errorf("Unexpected payload: %+v", got.Payload)
	}
	if data.Board.Kind != models.KindDeal {
		t.Errorf("Board kind = %s, want deal", data.Board.Kind)
	}
}

func TestFetchBoard_NotFound(t *testing.T) {
	repo := NewBoardRepo(setupTestDB(t), nil)
	_, err := repo.FetchBoard(context.Background(), "missing")
	if !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
}

func TestItemBoard(t *testing.T) {
	f := setupFixture(t, nil)
	ctx := context.Background()

	boardID, err := f.repo.ItemBoard(ctx, f.items["d"])
	if err != nil {
		t.Fatalf("ItemBoard failed: %v", err)
	}
	if boardID != "main" {
		t.Errorf("ItemBoard = %s, want main", boardID)
	}

	if _, err := f.repo.ItemBoard(ctx, "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestCreateColumn_DisplayOrder(t *testing.T) {
	f := setupFixture(t, nil)
	cols, err := f.repo.GetColumns(context.Background(), "main")
	if err != nil {
		t.Fatalf("GetColumns failed: %v", err)
	}
	if len(cols) != 2 || cols[0].DisplayOrder != 0 || cols[1].DisplayOrder != 1 {
		t.Errorf("Unexpected columns: %+v", cols)
	}

	if _, err := f.repo.CreateColumn(context.Background(), "nope", "X"); !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
}

func TestCreateItem_AtPosition(t *testing.T) {
	f := setupFixture(t, nil)

	item, err := f.repo.CreateItem(context.Background(), f.todo, models.Payload{Title: "new"}, 1)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if item.Position != 1 {
		t.Errorf("Position = %d, want 1", item.Position)
	}
	if diff := cmp.Diff([]string{"a", "new", "b", "c"}, columnTitles(t, f.repo, "main", f.todo)); diff != "" {
		t.Errorf("todo mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	f := setupFixture(t, nil)
	ctx := context.Background()

	if _, err := f.repo.CreateBoard(ctx, models.Board{ID: "x", Name: "X", Kind: "lead"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for bad kind, got %v", err)
	}
	if _, err := f.repo.CreateColumn(ctx, "main", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank column, got %v", err)
	}
	if _, err := f.repo.CreateItem(ctx, f.todo, models.Payload{}, models.AppendPosition); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank title, got %v", err)
	}
	if _, err := f.repo.CreateItem(ctx, "nowhere", models.Payload{Title: "t"}, models.AppendPosition); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Expected ErrColumnNotFound, got %v", err)
	}
}

func TestSeedDemo(t *testing.T) {
	repo := NewBoardRepo(setupTestDB(t), nil)
	ctx := context.Background()

	n, err := repo.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("SeedDemo failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 boards seeded, got %d", n)
	}

	// Second run creates nothing
	n, err = repo.SeedDemo(ctx)
	if err != nil || n != 0 {
		t.Errorf("Second SeedDemo = (%d, %v), want (0, nil)", n, err)
	}

	boards, err := repo.ListBoards(ctx)
	if err != nil {
		t.Fatalf("ListBoards failed: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("Expected 2 boards, got %d", len(boards))
	}

	data, err := repo.FetchBoard(ctx, DemoSupportID)
	if err != nil {
		t.Fatalf("FetchBoard failed: %v", err)
	}
	if _, err := kanban.NewSnapshot(data.Columns, data.Items); err != nil {
		t.Errorf("Seeded board does not load: %v", err)
	}
	t.Logf("✓ Seeded %d boards, support has %d items", len(boards), len(data.Items))
}

// ============================================================================
// Board service over SQLite
// ============================================================================

func TestBoardService_PersistsThroughRepo(t *testing.T) {
	f := setupFixture(t, nil)
	ctx := context.Background()

	svc, err := board.NewService("main", f.repo, board.Options{})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := svc.MoveToColumn(f.items["c"], f.done, 0); err != nil {
		t.Fatalf("MoveToColumn failed: %v", err)
	}
	if _, err := svc.MoveToColumn(f.items["a"], f.todo, 1); err != nil {
		t.Fatalf("MoveToColumn failed: %v", err)
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if diff := cmp.Diff([]string{"b", "a"}, columnTitles(t, f.repo, "main", f.todo)); diff != "" {
		t.Errorf("todo mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "d"}, columnTitles(t, f.repo, "main", f.done)); diff != "" {
		t.Errorf("done mismatch (-want +got):\n%s", diff)
	}

	// The optimistic view and the store agree
	data, err := f.repo.FetchBoard(ctx, "main")
	if err != nil {
		t.Fatalf("FetchBoard failed: %v", err)
	}
	stored, err := kanban.NewSnapshot(data.Columns, data.Items)
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	if diff := cmp.Diff(stored.Order(), svc.Snapshot().Order()); diff != "" {
		t.Errorf("local board diverged (-store +local):\n%s", diff)
	}
	if stats := svc.Stats(); stats.Persisted != 2 || stats.Failed != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestInitDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "crmboard.db")
	db, err := InitDB(context.Background(), path)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewBoardRepo(db, nil)
	if _, err := repo.SeedDemo(context.Background()); err != nil {
		t.Fatalf("SeedDemo on file database failed: %v", err)
	}
}
