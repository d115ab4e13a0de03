package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thenoetrevino/crmboard/internal/events"
	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Repository errors
var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrInvalidInput   = errors.New("invalid input")
)

// BoardRepo is the board store: it loads whole boards and persists moves
type BoardRepo struct {
	db          *sql.DB
	eventClient events.EventPublisher
}

// NewBoardRepo wraps db. eventClient may be nil; when set, every durable
// write is announced as a board_changed event.
func NewBoardRepo(db *sql.DB, eventClient events.EventPublisher) *BoardRepo {
	return &BoardRepo{db: db, eventClient: eventClient}
}

// rejected marks err as one that retrying cannot fix
func rejected(err error) error {
	return fmt.Errorf("%w: %w", kanban.ErrRejected, err)
}

// FetchBoard loads the board, its columns in display order and every item
// in column and position order.
func (r *BoardRepo) FetchBoard(ctx context.Context, boardID types.BoardID) (*models.BoardData, error) {
	b, err := r.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	columns, err := r.GetColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.column_id, i.position, i.title, i.kind, i.value, i.currency,
		       i.assignee, i.due_at, i.priority_id, i.type_id, i.status
		FROM items i
		JOIN columns c ON c.id = i.column_id
		WHERE c.board_id = ?
		ORDER BY c.display_order, i.position`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("error closing rows", "error", err)
		}
	}()

	var items []models.OrderedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	return &models.BoardData{Board: *b, Columns: columns, Items: items}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (models.OrderedItem, error) {
	var (
		item  models.OrderedItem
		kind  string
		due   sql.NullInt64
		prio  int
		typID int
	)
	p := &item.Payload
	if err := s.Scan(&item.ID, &item.ColumnID, &item.Position, &p.Title, &kind, &p.Value,
		&p.Currency, &p.Assignee, &due, &prio, &typID, &p.Status); err != nil {
		return models.OrderedItem{}, fmt.Errorf("failed to scan item: %w", err)
	}
	p.Kind = models.ItemKind(kind)
	p.DueAt = nullUnixToPtr(due)
	p.PriorityID = types.PriorityID(prio)
	p.TypeID = types.TypeID(typID)
	return item, nil
}

// GetBoard returns one board's header row
func (r *BoardRepo) GetBoard(ctx context.Context, boardID types.BoardID) (*models.Board, error) {
	var (
		b       models.Board
		kind    string
		created int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, kind, created_at FROM boards WHERE id = ?`, boardID,
	).Scan(&b.ID, &b.TenantID, &b.Name, &kind, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board %s: %w", boardID, err)
	}
	b.Kind = models.ItemKind(kind)
	b.CreatedAt = time.Unix(created, 0).UTC()
	return &b, nil
}

// GetColumns returns a board's columns in display order
func (r *BoardRepo) GetColumns(ctx context.Context, boardID types.BoardID) ([]models.Column, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, board_id, name, display_order FROM columns WHERE board_id = ? ORDER BY display_order`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("error closing rows", "error", err)
		}
	}()

	var columns []models.Column
	for rows.Next() {
		var c models.Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// ListBoards returns every board ordered by name
func (r *BoardRepo) ListBoards(ctx context.Context) ([]models.Board, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, kind, created_at FROM boards ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("error closing rows", "error", err)
		}
	}()

	var boards []models.Board
	for rows.Next() {
		var (
			b       models.Board
			kind    string
			created int64
		)
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &kind, &created); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		b.Kind = models.ItemKind(kind)
		b.CreatedAt = time.Unix(created, 0).UTC()
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// CreateBoard inserts a board. The id is chosen by the caller.
func (r *BoardRepo) CreateBoard(ctx context.Context, b models.Board) (*models.Board, error) {
	if strings.TrimSpace(string(b.ID)) == "" || strings.TrimSpace(b.Name) == "" {
		return nil, fmt.Errorf("%w: board id and name are required", ErrInvalidInput)
	}
	if b.Kind != models.KindDeal && b.Kind != models.KindTask {
		return nil, fmt.Errorf("%w: board kind must be deal or task", ErrInvalidInput)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO boards (id, tenant_id, name, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.TenantID, b.Name, string(b.Kind), b.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	sendEvent(ctx, r.eventClient, b.ID, "")
	return &b, nil
}

// CreateColumn appends a column to the right of the board's last column
func (r *BoardRepo) CreateColumn(ctx context.Context, boardID types.BoardID, name string) (*models.Column, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: column name is required", ErrInvalidInput)
	}

	col := models.Column{ID: types.NewColumnID(), BoardID: boardID, Name: name}
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := boardExists(ctx, tx, boardID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(display_order) + 1, 0) FROM columns WHERE board_id = ?`, boardID,
		).Scan(&col.DisplayOrder); err != nil {
			return fmt.Errorf("failed to get next display order: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO columns (id, board_id, name, display_order) VALUES (?, ?, ?, ?)`,
			col.ID, col.BoardID, col.Name, col.DisplayOrder)
		if err != nil {
			return fmt.Errorf("failed to insert column: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sendEvent(ctx, r.eventClient, boardID, "")
	return &col, nil
}

// CreateItem adds an item to a column. position is clamped into the column;
// models.AppendPosition places it last.
func (r *BoardRepo) CreateItem(ctx context.Context, columnID types.ColumnID, payload models.Payload, position int) (*models.OrderedItem, error) {
	if strings.TrimSpace(payload.Title) == "" {
		return nil, fmt.Errorf("%w: item title is required", ErrInvalidInput)
	}
	if payload.Kind == "" {
		payload.Kind = models.KindTask
	}
	if payload.Status == "" {
		payload.Status = models.StatusOpen
	}
	if payload.PriorityID == 0 {
		payload.PriorityID = types.PriorityMedium
	}
	if payload.TypeID == 0 {
		payload.TypeID = types.TaskTypeTask
	}

	item := models.OrderedItem{ID: types.NewItemID(), ColumnID: columnID, Payload: payload}
	var boardID types.BoardID

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		boardID, err = columnBoard(ctx, tx, columnID)
		if err != nil {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM items WHERE column_id = ?`, columnID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count items: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (id, column_id, position, title, kind, value, currency,
			                   assignee, due_at, priority_id, type_id, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, columnID, count, payload.Title, string(payload.Kind), payload.Value,
			payload.Currency, payload.Assignee, ptrToNullUnix(payload.DueAt),
			payload.PriorityID.ToInt(), payload.TypeID.ToInt(), payload.Status)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		if position == models.AppendPosition || position >= count {
			item.Position = count
			return nil
		}
		item.Position, err = placeItem(ctx, tx, item.ID, columnID, columnID, position)
		return err
	})
	if err != nil {
		return nil, err
	}

	sendEvent(ctx, r.eventClient, boardID, item.ID)
	return &item, nil
}

// ItemBoard returns the board an item belongs to
func (r *BoardRepo) ItemBoard(ctx context.Context, itemID types.ItemID) (types.BoardID, error) {
	var boardID types.BoardID
	err := r.db.QueryRowContext(ctx, `
		SELECT c.board_id FROM items i
		JOIN columns c ON c.id = i.column_id
		WHERE i.id = ?`, itemID).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get item board: %w", err)
	}
	return boardID, nil
}

// PersistPosition moves itemID to index position of columnID and renumbers
// the source and target columns densely. Calling it again with the same
// arguments leaves the store unchanged.
func (r *BoardRepo) PersistPosition(ctx context.Context, itemID types.ItemID, columnID types.ColumnID, position int) error {
	var boardID types.BoardID

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var source types.ColumnID
		err := tx.QueryRowContext(ctx, `SELECT column_id FROM items WHERE id = ?`, itemID).Scan(&source)
		if errors.Is(err, sql.ErrNoRows) {
			return rejected(fmt.Errorf("%w: %s", ErrItemNotFound, itemID))
		}
		if err != nil {
			return fmt.Errorf("failed to get item column: %w", err)
		}

		sourceBoard, err := columnBoard(ctx, tx, source)
		if err != nil {
			return err
		}
		boardID, err = columnBoard(ctx, tx, columnID)
		if err != nil {
			return rejected(err)
		}
		if sourceBoard != boardID {
			return rejected(fmt.Errorf("%w: column %s is on another board", ErrColumnNotFound, columnID))
		}

		_, err = placeItem(ctx, tx, itemID, source, columnID, position)
		return err
	})
	if err != nil {
		return err
	}

	slog.Debug("position persisted",
		"board_id", boardID,
		"item_id", itemID,
		"column_id", columnID,
		"position", position)
	sendEvent(ctx, r.eventClient, boardID, itemID)
	return nil
}

// placeItem moves itemID from source to index position of target and
// renumbers both columns. It returns the clamped position. Rows are parked
// at negative positions first so UNIQUE(column_id, position) holds at every
// statement.
func placeItem(ctx context.Context, tx *sql.Tx, itemID types.ItemID, source, target types.ColumnID, position int) (int, error) {
	sourceIDs, err := columnItemIDs(ctx, tx, source, itemID)
	if err != nil {
		return 0, err
	}
	targetIDs := sourceIDs
	if target != source {
		if targetIDs, err = columnItemIDs(ctx, tx, target, itemID); err != nil {
			return 0, err
		}
	}

	position = clamp(position, 0, len(targetIDs))
	placed := make([]types.ItemID, 0, len(targetIDs)+1)
	placed = append(placed, targetIDs[:position]...)
	placed = append(placed, itemID)
	placed = append(placed, targetIDs[position:]...)

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET position = -1 - position WHERE column_id IN (?, ?)`, source, target); err != nil {
		return 0, fmt.Errorf("failed to park positions: %w", err)
	}

	renumber := func(col types.ColumnID, ids []types.ItemID) error {
		for i, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE items SET column_id = ?, position = ?, updated_at = strftime('%s', 'now') WHERE id = ?`,
				col, i, id); err != nil {
				return fmt.Errorf("failed to renumber %s: %w", col, err)
			}
		}
		return nil
	}

	if target != source {
		if err := renumber(source, sourceIDs); err != nil {
			return 0, err
		}
	}
	if err := renumber(target, placed); err != nil {
		return 0, err
	}
	return position, nil
}

// columnItemIDs lists a column's item ids in position order, leaving out skip
func columnItemIDs(ctx context.Context, tx *sql.Tx, columnID types.ColumnID, skip types.ItemID) ([]types.ItemID, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM items WHERE column_id = ? AND id != ? ORDER BY position, id`, columnID, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list column items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("error closing rows", "error", err)
		}
	}()

	var ids []types.ItemID
	for rows.Next() {
		var id types.ItemID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func columnBoard(ctx context.Context, tx *sql.Tx, columnID types.ColumnID) (types.BoardID, error) {
	var boardID types.BoardID
	err := tx.QueryRowContext(ctx, `SELECT board_id FROM columns WHERE id = ?`, columnID).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get column board: %w", err)
	}
	return boardID, nil
}

func boardExists(ctx context.Context, tx *sql.Tx, boardID types.BoardID) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards WHERE id = ?`, boardID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check board: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	return nil
}
