package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Demo board ids created by SeedDemo
const (
	DemoPipelineID types.BoardID = "pipeline"
	DemoSupportID  types.BoardID = "support"
)

type seedBoard struct {
	board   models.Board
	columns []string
	items   map[int][]models.Payload // column index -> items in order
}

func demoBoards(now time.Time) []seedBoard {
	day := 24 * time.Hour
	due := func(d time.Duration) *time.Time {
		t := now.Add(d).UTC().Truncate(time.Second)
		return &t
	}
	deal := func(title, amount, assignee string) models.Payload {
		return models.Payload{
			Title:    title,
			Kind:     models.KindDeal,
			Value:    decimal.RequireFromString(amount),
			Currency: "USD",
			Assignee: assignee,
		}
	}
	task := func(title string, prio types.PriorityID, typ types.TypeID, dueAt *time.Time, status string) models.Payload {
		return models.Payload{
			Title:      title,
			Kind:       models.KindTask,
			PriorityID: prio,
			TypeID:     typ,
			DueAt:      dueAt,
			Status:     status,
		}
	}

	return []seedBoard{
		{
			board:   models.Board{ID: DemoPipelineID, TenantID: "demo", Name: "Sales Pipeline", Kind: models.KindDeal},
			columns: []string{"Lead", "Qualified", "Proposal", "Won"},
			items: map[int][]models.Payload{
				0: {deal("Acme renewal", "12000.00", "dana"), deal("Globex pilot", "4500.50", "lee")},
				1: {deal("Initech expansion", "32000.00", "dana")},
				2: {deal("Umbrella onboarding", "8800.00", "sam")},
			},
		},
		{
			board:   models.Board{ID: DemoSupportID, TenantID: "demo", Name: "Support Tasks", Kind: models.KindTask},
			columns: []string{"Open", "In Progress", "Done"},
			items: map[int][]models.Payload{
				0: {
					task("Reset SSO for Acme", types.PriorityHigh, types.TaskTypeBug, due(-2*day), models.StatusOpen),
					task("Export Q3 invoices", types.PriorityMedium, types.TaskTypeTask, due(3*day), models.StatusOpen),
					task("Add webhook retries", types.PriorityLow, types.TaskTypeFeature, nil, models.StatusOpen),
				},
				1: {task("Fix duplicate contacts", types.PriorityCritical, types.TaskTypeBug, due(day), models.StatusOpen)},
				2: {task("Archive 2023 leads", types.PriorityTrivial, types.TaskTypeTask, due(-7*day), models.StatusDone)},
			},
		},
	}
}

// SeedDemo creates a deal pipeline and a support task board. Boards that
// already exist are left alone. It reports how many boards it created.
func (r *BoardRepo) SeedDemo(ctx context.Context) (int, error) {
	created := 0
	for _, sb := range demoBoards(time.Now()) {
		if _, err := r.GetBoard(ctx, sb.board.ID); err == nil {
			slog.Debug("demo board already present", "board_id", sb.board.ID)
			continue
		}

		if _, err := r.CreateBoard(ctx, sb.board); err != nil {
			return created, err
		}
		for i, name := range sb.columns {
			col, err := r.CreateColumn(ctx, sb.board.ID, name)
			if err != nil {
				return created, fmt.Errorf("failed to seed column %q: %w", name, err)
			}
			for _, p := range sb.items[i] {
				if _, err := r.CreateItem(ctx, col.ID, p, models.AppendPosition); err != nil {
					return created, fmt.Errorf("failed to seed item %q: %w", p.Title, err)
				}
			}
		}
		created++
		slog.Info("demo board seeded", "board_id", sb.board.ID)
	}
	return created, nil
}
