package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/services/board"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// ============================================================================
// POINTER NAVIGATION
// ============================================================================

func TestModel_PointerNavigation(t *testing.T) {
	m, _, _ := setupModel(t, newGateway())

	tests := []struct {
		name string
		keys []string
		want types.ItemID
	}{
		{"starts on first card", nil, "d1"},
		{"down moves a card", []string{"j"}, "d2"},
		{"down clamps at column end", []string{"j", "j", "j", "j"}, "d3"},
		{"right clamps row into short column", []string{"j", "j", "l"}, "d4"},
		{"left at first column stays", []string{"h"}, "d1"},
		{"arrow keys work too", []string{"down"}, "d2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m
			for _, k := range tt.keys {
				if k == "down" {
					updated, _ := got.Update(tea.KeyPressMsg(tea.Key{Code: tea.KeyDown}))
					got = updated.(Model)
					continue
				}
				got = press(got, k)
			}
			item, ok := got.Selected()
			if !ok || item.ID != tt.want {
				t.Errorf("Selected() = %v, %v; want %s", item.ID, ok, tt.want)
			}
		})
	}
}

// ============================================================================
// KEYBOARD DRAG
// ============================================================================

func TestModel_DragWithinColumn(t *testing.T) {
	gw := newGateway()
	m, svc, _ := setupModel(t, gw)

	m = press(m, "space")
	if id, ok := m.Dragging(); !ok || id != "d1" {
		t.Fatalf("Expected d1 to be dragged, got %v %v", id, ok)
	}
	if got := m.Intent(); got != kanban.ColumnIntent(leadCol, 0) {
		t.Errorf("Intent right after grab = %s, want lead@0", got)
	}

	m = press(m, "j", "j")
	if got := m.Intent(); got != kanban.ColumnIntent(leadCol, 1) {
		t.Errorf("Intent after two steps = %s, want lead@1", got)
	}

	m = press(m, "enter")
	if _, ok := m.Dragging(); ok {
		t.Error("Expected the drag to end on drop")
	}
	want := []types.ItemID{"d2", "d1", "d3"}
	if diff := cmp.Diff(want, order(svc, leadCol)); diff != "" {
		t.Errorf("lead order mismatch (-want +got):\n%s", diff)
	}
	if item, _ := m.Selected(); item.ID != "d1" {
		t.Errorf("Expected the cursor to follow d1, got %s", item.ID)
	}

	flush(t, svc)
	if gw.writes() != 1 {
		t.Errorf("Expected 1 write, got %d", gw.writes())
	}
	t.Log("✓ Keyboard drag reorders within a column")
}

func TestModel_DragAcrossColumns(t *testing.T) {
	m, svc, _ := setupModel(t, newGateway())

	m = press(m, "space", "l")
	if got := m.Intent(); got != kanban.ColumnIntent(wonCol, 0) {
		t.Errorf("Intent = %s, want won@0", got)
	}
	m = press(m, "enter")

	if diff := cmp.Diff([]types.ItemID{"d1", "d4"}, order(svc, wonCol)); diff != "" {
		t.Errorf("won order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]types.ItemID{"d2", "d3"}, order(svc, leadCol)); diff != "" {
		t.Errorf("lead order mismatch (-want +got):\n%s", diff)
	}
	item, _ := m.Selected()
	if item.ID != "d1" || item.ColumnID != wonCol {
		t.Errorf("Expected cursor on d1 in won, got %s in %s", item.ID, item.ColumnID)
	}
}

func TestModel_DropInPlaceIsNoOp(t *testing.T) {
	gw := newGateway()
	m, svc, _ := setupModel(t, gw)

	press(m, "space", "enter")
	flush(t, svc)

	if diff := cmp.Diff([]types.ItemID{"d1", "d2", "d3"}, order(svc, leadCol)); diff != "" {
		t.Errorf("lead order mismatch (-want +got):\n%s", diff)
	}
	if got := svc.Stats().Committed; got != 0 {
		t.Errorf("Expected no commit, got %d", got)
	}
	if gw.writes() != 0 {
		t.Errorf("Expected no writes, got %d", gw.writes())
	}
}

func TestModel_CancelDragLeavesBoard(t *testing.T) {
	m, svc, _ := setupModel(t, newGateway())

	m = press(m, "space", "j", "j", "l", "esc")
	if _, ok := m.Dragging(); ok {
		t.Fatal("Expected cancel to end the drag")
	}
	if diff := cmp.Diff([]types.ItemID{"d1", "d2", "d3"}, order(svc, leadCol)); diff != "" {
		t.Errorf("lead order mismatch (-want +got):\n%s", diff)
	}
	if item, _ := m.Selected(); item.ID != "d1" {
		t.Errorf("Expected cursor back on d1, got %s", item.ID)
	}
	if !m.Intent().IsNone() {
		t.Errorf("Expected no intent after cancel, got %s", m.Intent())
	}
	t.Log("✓ Cancel restores the idle cursor")
}

func TestModel_GrabKeyIgnoredWhileDragging(t *testing.T) {
	m, _, _ := setupModel(t, newGateway())

	m = press(m, "space", "j", "space")
	if id, ok := m.Dragging(); !ok || id != "d1" {
		t.Errorf("Expected d1 to stay dragged, got %v %v", id, ok)
	}
}

// ============================================================================
// EXPLICIT MOVES AND FILTERS
// ============================================================================

func TestModel_MoveItemToNeighbourColumn(t *testing.T) {
	m, svc, _ := setupModel(t, newGateway())

	m = press(m, "L")
	if diff := cmp.Diff([]types.ItemID{"d4", "d1"}, order(svc, wonCol)); diff != "" {
		t.Errorf("won order mismatch (-want +got):\n%s", diff)
	}
	if item, _ := m.Selected(); item.ID != "d1" {
		t.Errorf("Expected cursor to follow d1, got %s", item.ID)
	}

	m = press(m, "L")
	if diff := cmp.Diff([]types.ItemID{"d4", "d1"}, order(svc, wonCol)); diff != "" {
		t.Errorf("Moving past the last column should do nothing (-want +got):\n%s", diff)
	}

	press(m, "H")
	if diff := cmp.Diff([]types.ItemID{"d2", "d3", "d1"}, order(svc, leadCol)); diff != "" {
		t.Errorf("lead order mismatch (-want +got):\n%s", diff)
	}
}

func TestModel_FilterCycle(t *testing.T) {
	m, svc, _ := setupModel(t, newGateway())

	m = press(m, "f")
	if m.FilterName() != "open" {
		t.Fatalf("Expected the open filter, got %q", m.FilterName())
	}
	if svc.Filter().Status != "open" {
		t.Errorf("Expected the service filter to follow, got %+v", svc.Filter())
	}
	if got := len(m.layout.Columns[0].Cards); got != 2 {
		t.Errorf("Expected 2 visible lead cards, got %d", got)
	}
	if !strings.Contains(m.View().Content, "+1 hidden") {
		t.Error("Expected the hidden count in the column header")
	}

	m = press(m, "F")
	if m.FilterName() != "all" || svc.Filter().Active() {
		t.Errorf("Expected filters cleared, got %q", m.FilterName())
	}

	for range filterPresets {
		m = press(m, "f")
	}
	if m.FilterName() != "all" {
		t.Errorf("Expected the cycle to wrap to all, got %q", m.FilterName())
	}
}

func TestModel_DragUnderFilterKeepsHiddenItems(t *testing.T) {
	m, svc, _ := setupModel(t, newGateway())

	// open hides d2; visible lead is [d1 d3]
	m = press(m, "f", "j", "space", "k", "enter")

	want := []types.ItemID{"d3", "d1", "d2"}
	if diff := cmp.Diff(want, order(svc, leadCol)); diff != "" {
		t.Errorf("lead order mismatch (-want +got):\n%s", diff)
	}
	t.Log("✓ Drop index translated through the filter")
}

// ============================================================================
// NOTICES AND STORE CHANGES
// ============================================================================

func TestModel_RejectedMoveShowsNotice(t *testing.T) {
	gw := newGateway()
	gw.err = fmt.Errorf("%w: column archived", board.ErrRejected)
	m, svc, bridge := setupModel(t, gw)

	m = press(m, "L")
	flush(t, svc)

	if diff := cmp.Diff([]types.ItemID{"d1", "d2", "d3"}, order(svc, leadCol)); diff != "" {
		t.Errorf("Expected rollback (-want +got):\n%s", diff)
	}

	var notice *NoticeMsg
	for range 2 {
		msg := bridge.Wait()()
		if n, ok := msg.(NoticeMsg); ok {
			notice = &n
			break
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	if notice == nil {
		t.Fatal("Expected a notice from the failed write")
	}
	if notice.Notice.Level != board.NoticeError {
		t.Errorf("Expected an error notice, got %s", notice.Notice.Level)
	}

	updated, cmd := m.Update(*notice)
	m = updated.(Model)
	if cmd == nil {
		t.Error("Expected the notice to schedule its expiry and the next wait")
	}
	if !strings.Contains(m.View().Content, "Move was not saved") {
		t.Error("Expected the notice banner in the view")
	}

	shown, _ := m.Notice()
	updated, _ = m.Update(noticeExpiredMsg{At: shown.At})
	m = updated.(Model)
	if _, ok := m.Notice(); ok {
		t.Error("Expected the notice to expire")
	}
}

func TestModel_StaleExpiryKeepsNewerNotice(t *testing.T) {
	m, _, _ := setupModel(t, newGateway())

	now := time.Now()
	updated, _ := m.Update(NoticeMsg{Notice: board.Notice{Level: board.NoticeInfo, Message: "second", At: now}})
	m = updated.(Model)
	updated, _ = m.Update(noticeExpiredMsg{At: now.Add(-time.Second)})
	m = updated.(Model)

	if n, ok := m.Notice(); !ok || n.Message != "second" {
		t.Errorf("Expected the newer notice to stay, got %+v %v", n, ok)
	}
}

func TestModel_BoardChangedRelayouts(t *testing.T) {
	m, svc, _ := setupModel(t, newGateway())

	// A move made behind the model's back
	if _, err := svc.MoveToColumn("d3", wonCol, 0); err != nil {
		t.Fatalf("MoveToColumn failed: %v", err)
	}
	updated, cmd := m.Update(BoardChangedMsg{Version: svc.Snapshot().Version()})
	m = updated.(Model)

	if cmd == nil {
		t.Error("Expected the model to keep waiting for changes")
	}
	if col, row, ok := m.layout.Locate("d3"); !ok || col != 1 || row != 0 {
		t.Errorf("Expected d3 at won row 0, got %d %d %v", col, row, ok)
	}
}

// ============================================================================
// MOUSE
// ============================================================================

func TestModel_MouseDrag(t *testing.T) {
	m, svc, _ := setupModel(t, newGateway())

	from := m.layout.Columns[0].Cards[0].Rect
	to := m.layout.Columns[1].Cards[0].Rect

	updated, _ := m.Update(tea.MouseClickMsg{X: int(from.X) + 2, Y: int(from.Y) + 1, Button: tea.MouseLeft})
	m = updated.(Model)
	if id, ok := m.Dragging(); !ok || id != "d1" {
		t.Fatalf("Expected the click to grab d1, got %v %v", id, ok)
	}

	// Top row of d4 lands before it
	updated, _ = m.Update(tea.MouseMotionMsg{X: int(to.X) + 2, Y: int(to.Y), Button: tea.MouseLeft})
	m = updated.(Model)
	if got := m.Intent(); got != kanban.ColumnIntent(wonCol, 0) {
		t.Errorf("Intent while hovering = %s, want won@0", got)
	}

	updated, _ = m.Update(tea.MouseReleaseMsg{X: int(to.X) + 2, Y: int(to.Y), Button: tea.MouseLeft})
	m = updated.(Model)
	if _, ok := m.Dragging(); ok {
		t.Error("Expected release to drop")
	}
	if diff := cmp.Diff([]types.ItemID{"d1", "d4"}, order(svc, wonCol)); diff != "" {
		t.Errorf("won order mismatch (-want +got):\n%s", diff)
	}
	t.Log("✓ Mouse drag moved d1 before d4")
}

func TestModel_MouseClickOffCardDoesNothing(t *testing.T) {
	m, _, _ := setupModel(t, newGateway())

	updated, _ := m.Update(tea.MouseClickMsg{X: 1, Y: 0, Button: tea.MouseLeft})
	m = updated.(Model)
	if _, ok := m.Dragging(); ok {
		t.Error("Expected no drag from a click on the header")
	}
}

// ============================================================================
// VIEW AND KEYS
// ============================================================================

func TestModel_View(t *testing.T) {
	m, _, _ := setupModel(t, newGateway())

	view := m.View()
	if !view.AltScreen {
		t.Error("Expected the alt screen")
	}
	for _, want := range []string{"Lead", "Won", "Deal d1", "Filter: all", "3 cards", "3000.00 USD"} {
		if !strings.Contains(view.Content, want) {
			t.Errorf("Expected %q in the view", want)
		}
	}

	m = press(m, "space")
	if !strings.Contains(m.View().Content, "Dragging d1 → lead@0") {
		t.Error("Expected the drag status line")
	}
}

func TestModel_HelpAndQuit(t *testing.T) {
	m, _, _ := setupModel(t, newGateway())

	m = press(m, "?")
	if !m.showHelp {
		t.Error("Expected help to toggle on")
	}
	if !strings.Contains(m.View().Content, "grab card") {
		t.Error("Expected key help in the view")
	}

	updated, cmd := m.Update(keyPress("q"))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if m.View().Content != "" {
		t.Error("Expected an empty view after quit")
	}
}

func TestResizeRelayouts(t *testing.T) {
	m, _, _ := setupModel(t, newGateway())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = updated.(Model)
	if m.layout.ColWidth != minColWidth+3 {
		t.Errorf("ColWidth = %d, want %d", m.layout.ColWidth, minColWidth+3)
	}
	if item, _ := m.Selected(); item.ID != "d1" {
		t.Errorf("Expected the cursor to survive a resize, got %s", item.ID)
	}
}
