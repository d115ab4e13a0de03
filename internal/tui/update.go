package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/services/board"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.relayout()
		return m, nil

	case BoardChangedMsg:
		m.relayout()
		return m, m.bridge.Wait()

	case NoticeMsg:
		cmd := m.setNotice(msg.Notice)
		return m, tea.Batch(cmd, m.bridge.Wait())

	case noticeExpiredMsg:
		if m.notice != nil && m.notice.At.Equal(msg.At) {
			m.notice = nil
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseDown(msg.Mouse())

	case tea.MouseMotionMsg:
		return m.handleMouseMove(msg.Mouse())

	case tea.MouseReleaseMsg:
		return m.handleMouseUp(msg.Mouse())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	_, dragging := m.svc.Dragging()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.svc.Cancel()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.step(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.step(1, 0)
	case key.Matches(msg, m.keys.Up):
		m.step(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.step(0, 1)

	case key.Matches(msg, m.keys.Grab) && !dragging:
		return m, m.grab()
	case key.Matches(msg, m.keys.Drop) && dragging:
		return m, m.drop()
	case key.Matches(msg, m.keys.Cancel) && dragging:
		m.cancel()

	case key.Matches(msg, m.keys.MoveItemLeft) && !dragging:
		return m, m.moveSelected(-1)
	case key.Matches(msg, m.keys.MoveItemRight) && !dragging:
		return m, m.moveSelected(1)

	case key.Matches(msg, m.keys.CycleFilter):
		m.applyFilter((m.filterIdx + 1) % len(filterPresets))
	case key.Matches(msg, m.keys.ClearFilter):
		m.applyFilter(0)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}
	return m, nil
}

// step moves the pointer between cards, or between slots while dragging
func (m *Model) step(dx, dy int) {
	m.mouse = false
	_, dragging := m.svc.Dragging()

	if dx != 0 {
		next := m.col + dx
		if _, ok := m.layout.Column(next); !ok {
			return
		}
		m.col = next
	}
	if dragging {
		m.slot += dy
		m.clampSlot()
		m.placePointer()
		m.resolve()
		return
	}
	m.row += dy
	m.clampCursor()
	m.placePointer()
}

// grab starts dragging the selected card. The pointer starts on the slot the
// card already occupies, so an immediate drop changes nothing.
func (m *Model) grab() tea.Cmd {
	item, ok := m.Selected()
	if !ok {
		return nil
	}
	if err := m.svc.BeginDrag(item.ID); err != nil {
		return m.fail("Could not grab card", err)
	}
	m.slot = m.row
	m.placePointer()
	m.resolve()
	return nil
}

// drop commits the resolved intent. A none intent cancels the drag.
func (m *Model) drop() tea.Cmd {
	active, _ := m.svc.Dragging()
	intent := m.svc.Resolve(m.pointer, m.layout.Droppable)
	_, err := m.svc.Drop(intent)
	m.mouse = false
	m.intent = kanban.NoIntent()
	m.relayout()
	m.focus(active)
	if err != nil {
		return m.fail("Could not move card", err)
	}
	return nil
}

func (m *Model) cancel() {
	active, _ := m.svc.Dragging()
	m.svc.Cancel()
	m.mouse = false
	m.intent = kanban.NoIntent()
	m.relayout()
	m.focus(active)
}

// moveSelected sends the selected card to the end of a neighbouring column
func (m *Model) moveSelected(dir int) tea.Cmd {
	item, ok := m.Selected()
	if !ok {
		return nil
	}
	target, ok := m.layout.Column(m.col + dir)
	if !ok {
		return nil
	}
	end := len(m.svc.GetColumn(target.Column.ID))
	if _, err := m.svc.MoveToColumn(item.ID, target.Column.ID, end); err != nil {
		return m.fail("Could not move card", err)
	}
	m.relayout()
	m.focus(item.ID)
	return nil
}

// focus puts the idle cursor on id if it is visible
func (m *Model) focus(id types.ItemID) {
	if col, row, ok := m.layout.Locate(id); ok {
		m.col, m.row = col, row
		m.placePointer()
	}
}

func (m *Model) applyFilter(idx int) {
	m.filterIdx = idx
	m.svc.SetFilter(filterPresets[idx].build(m.now()))
	m.relayout()
}

// refresh reloads the board in the background
func (m *Model) refresh() tea.Cmd {
	svc, parent := m.svc, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, refreshTimeout)
		defer cancel()
		if err := svc.Refresh(ctx); err != nil {
			slog.Warn("manual refresh failed", "board_id", svc.BoardID(), "error", err)
			return NoticeMsg{Notice: board.Notice{
				Level:   board.NoticeError,
				Message: fmt.Sprintf("Refresh failed: %v", err),
				Err:     err,
				At:      time.Now(),
			}}
		}
		return nil
	}
}

// Mouse gestures: press on a card grabs it, motion updates the pointer and
// release drops. Cells map to their centers.

func cellPoint(mouse tea.Mouse) kanban.Point {
	return kanban.Point{X: float64(mouse.X) + 0.5, Y: float64(mouse.Y) + 0.5}
}

func (m Model) handleMouseDown(mouse tea.Mouse) (tea.Model, tea.Cmd) {
	if mouse.Button != tea.MouseLeft {
		return m, nil
	}
	if _, dragging := m.svc.Dragging(); dragging {
		return m, nil
	}
	p := cellPoint(mouse)
	item, ok := m.layout.CardAt(p)
	if !ok {
		return m, nil
	}
	if err := m.svc.BeginDrag(item.ID); err != nil {
		return m, m.fail("Could not grab card", err)
	}
	if col, row, ok := m.layout.Locate(item.ID); ok {
		m.col, m.row, m.slot = col, row, row
	}
	m.mouse = true
	m.pointer = p
	m.resolve()
	return m, nil
}

func (m Model) handleMouseMove(mouse tea.Mouse) (tea.Model, tea.Cmd) {
	if !m.mouse {
		return m, nil
	}
	m.pointer = cellPoint(mouse)
	m.resolve()
	return m, nil
}

func (m Model) handleMouseUp(mouse tea.Mouse) (tea.Model, tea.Cmd) {
	if !m.mouse {
		return m, nil
	}
	m.pointer = cellPoint(mouse)
	return m, m.drop()
}
