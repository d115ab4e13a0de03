package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// ============================================================================
// Priority / Type Parsing Tests
// ============================================================================

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected types.PriorityID
		wantErr  bool
	}{
		{input: "trivial", expected: types.PriorityTrivial},
		{input: "Low", expected: types.PriorityLow},
		{input: "MeDiUm", expected: types.PriorityMedium},
		{input: " high ", expected: types.PriorityHigh},
		{input: "CRITICAL", expected: types.PriorityCritical},
		{input: "urgent", wantErr: true},
		{input: "", wantErr: true},
		{input: "3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParsePriority(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for '%s', got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error for '%s', got: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("Expected %d for '%s', got %d", tt.expected, tt.input, result)
			}
			if PriorityName(result) != strings.ToLower(strings.TrimSpace(tt.input)) {
				t.Errorf("PriorityName(%d) = %s", result, PriorityName(result))
			}
		})
	}
}

func TestParseTaskType(t *testing.T) {
	tests := []struct {
		input    string
		expected types.TypeID
		wantErr  bool
	}{
		{input: "task", expected: types.TaskTypeTask},
		{input: "Feature", expected: types.TaskTypeFeature},
		{input: "BUG", expected: types.TaskTypeBug},
		{input: "epic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseTaskType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTaskType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("Expected %d for '%s', got %d", tt.expected, tt.input, result)
			}
		})
	}
}

// ============================================================================
// Column Lookup Tests
// ============================================================================

func TestFindColumnByName(t *testing.T) {
	columns := []models.Column{
		{ID: "c1", Name: "Lead"},
		{ID: "c2", Name: "In Progress"},
		{ID: "lead", Name: "Odd"},
	}

	tests := []struct {
		query string
		want  types.ColumnID
	}{
		{query: "c2", want: "c2"},
		{query: "in progress", want: "c2"},
		{query: "LEAD", want: "c1"},
		// An exact id match wins over a name match
		{query: "lead", want: "lead"},
	}
	for _, tt := range tests {
		col, err := FindColumnByName(columns, tt.query)
		if err != nil {
			t.Errorf("FindColumnByName(%q) failed: %v", tt.query, err)
			continue
		}
		if col.ID != tt.want {
			t.Errorf("FindColumnByName(%q) = %s, want %s", tt.query, col.ID, tt.want)
		}
	}

	if _, err := FindColumnByName(columns, "Won"); err == nil {
		t.Error("Expected error for a missing column")
	}
	if got := FormatAvailableColumns(columns); got != "Lead, In Progress, Odd" {
		t.Errorf("FormatAvailableColumns = %q", got)
	}
	if got := GetCurrentColumnName(columns, "missing"); got != "Unknown" {
		t.Errorf("GetCurrentColumnName = %q", got)
	}
}

func TestResolveBoardID(t *testing.T) {
	t.Setenv(BoardEnvVar, "")
	cfg := config.Default()

	if _, err := ResolveBoardID("", cfg); err == nil {
		t.Error("Expected error without a board")
	}

	cfg.Board.Default = "support"
	if got, _ := ResolveBoardID("", cfg); got != "support" {
		t.Errorf("Expected configured default, got %s", got)
	}

	t.Setenv(BoardEnvVar, "pipeline")
	if got, _ := ResolveBoardID("", cfg); got != "pipeline" {
		t.Errorf("Expected env board, got %s", got)
	}
	if got, _ := ResolveBoardID("other", cfg); got != "other" {
		t.Errorf("Expected flag board, got %s", got)
	}
}

// ============================================================================
// Board Rendering Tests
// ============================================================================

func testView(t *testing.T, f kanban.Filter) kanban.View {
	t.Helper()
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	columns := []models.Column{
		{ID: "lead", BoardID: "b", Name: "Lead", DisplayOrder: 0},
		{ID: "won", BoardID: "b", Name: "Won", DisplayOrder: 1},
	}
	items := []models.OrderedItem{
		{ID: "d1", ColumnID: "lead", Position: 0, Payload: models.Payload{
			Title: "Acme", Kind: models.KindDeal, Value: decimal.RequireFromString("1200"), Currency: "USD",
			PriorityID: types.PriorityHigh,
		}},
		{ID: "d2", ColumnID: "lead", Position: 1, Payload: models.Payload{
			Title: "Globex", Kind: models.KindDeal, Value: decimal.RequireFromString("300.5"), Currency: "USD",
			PriorityID: types.PriorityLow, DueAt: &due,
		}},
	}
	snap, err := kanban.NewSnapshot(columns, items)
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	return kanban.NewView(snap, f)
}

func TestNewBoardDetail(t *testing.T) {
	b := models.Board{ID: "b", Name: "Sales", Kind: models.KindDeal}
	d := NewBoardDetail(b, testView(t, kanban.Filter{}))

	if d.GetID() != "b" || d.Filtered {
		t.Errorf("Unexpected board header %+v", d.Board)
	}
	if len(d.Columns) != 2 || len(d.Columns[0].Items) != 2 || len(d.Columns[1].Items) != 0 {
		t.Fatalf("Unexpected columns %+v", d.Columns)
	}
	if len(d.Columns[0].Totals) != 1 || d.Columns[0].Totals[0].String() != "1500.50 USD" {
		t.Errorf("Unexpected totals %v", d.Columns[0].Totals)
	}
	if d.Columns[0].Items[0].Value != "1200.00 USD" {
		t.Errorf("Unexpected card value %q", d.Columns[0].Items[0].Value)
	}

	text := d.String()
	for _, want := range []string{"Sales (b)", "Lead [2] 1500.50 USD", "0. Acme", "1. Globex", "due 2026-01-05", "Won [0]"} {
		if !strings.Contains(text, want) {
			t.Errorf("String() missing %q:\n%s", want, text)
		}
	}

	md := d.Markdown()
	for _, want := range []string{"# Sales", "## Lead (2)", "**Total:** 1500.50 USD", "- **Acme**", "_empty_"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}
}

func TestNewBoardDetail_Filtered(t *testing.T) {
	b := models.Board{ID: "b", Name: "Sales", Kind: models.KindDeal}
	d := NewBoardDetail(b, testView(t, kanban.Filter{Priorities: []types.PriorityID{types.PriorityLow}}))

	if !d.Filtered {
		t.Error("Expected a filtered board")
	}
	lead := d.Columns[0]
	if len(lead.Items) != 1 || lead.Items[0].ID != "d2" || lead.Hidden != 1 {
		t.Errorf("Unexpected filtered column %+v", lead)
	}
	// Positions stay the unfiltered ones
	if lead.Items[0].Position != 1 {
		t.Errorf("Expected position 1, got %d", lead.Items[0].Position)
	}
	if !strings.Contains(d.Markdown(), "_1 hidden by filter_") {
		t.Errorf("Markdown() should mention hidden items:\n%s", d.Markdown())
	}
}
