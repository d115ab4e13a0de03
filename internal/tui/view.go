package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
)

// View renders the board
func (m Model) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion

	if m.quitting {
		view.Content = ""
		return view
	}

	sections := []string{m.renderHeader(), m.renderBoard()}
	if n, ok := m.Notice(); ok {
		sections = append(sections, m.styles.RenderNotice(n))
	}
	sections = append(sections, m.help.View(m.keys))
	view.Content = strings.Join(sections, "\n")
	return view
}

// renderHeader draws the two lines above the columns
func (m Model) renderHeader() string {
	title := m.styles.Title.Render("crmboard · " + string(m.svc.BoardID()))

	status := "Filter: " + m.FilterName()
	if active, dragging := m.svc.Dragging(); dragging {
		status += "  Dragging " + string(active)
		if m.intent.IsNone() {
			status += " (drop cancels)"
		} else {
			status += " → " + m.intent.String()
		}
	}
	return title + "\n" + m.styles.Subtle.Render(status)
}

// renderBoard draws every column side by side, row for row matching the layout
func (m Model) renderBoard() string {
	if len(m.layout.Columns) == 0 {
		return m.styles.Subtle.Render("This board has no columns")
	}

	columns := make([][]string, len(m.layout.Columns))
	tallest := 0
	for i, c := range m.layout.Columns {
		columns[i] = m.renderColumn(i, c)
		tallest = max(tallest, len(columns[i]))
	}

	blank := strings.Repeat(" ", m.layout.ColWidth)
	gutter := strings.Repeat(" ", columnGutter)
	var b strings.Builder
	for row := range tallest {
		if row > 0 {
			b.WriteString("\n")
		}
		for i, lines := range columns {
			if i > 0 {
				b.WriteString(gutter)
			}
			if row < len(lines) {
				b.WriteString(lines[row])
			} else {
				b.WriteString(blank)
			}
		}
	}
	return b.String()
}

func (m Model) renderColumn(idx int, c columnBox) []string {
	w := m.layout.ColWidth
	lines := make([]string, 0, columnHeader+len(c.Cards)*slotHeight+gapHeight)

	items := make([]models.OrderedItem, len(c.Cards))
	for i, card := range c.Cards {
		items[i] = card.Item
	}
	count := fmt.Sprintf("%d cards", len(c.Cards))
	if c.Hidden > 0 {
		count += fmt.Sprintf(" +%d hidden", c.Hidden)
	}
	for _, t := range models.ColumnTotals(items) {
		count += " · " + t.String()
	}
	lines = append(lines,
		m.styles.ColumnHeader.Render(pad(truncate(c.Column.Name, w), w)),
		m.styles.Subtle.Render(pad(truncate(count, w), w)),
	)

	active, dragging := m.svc.Dragging()
	for i, card := range c.Cards {
		lines = append(lines, m.renderGap(c.Gaps[i], dragging))
		style := m.styles.Card
		switch {
		case dragging && card.Item.ID == active:
			style = m.styles.Dragging
		case !dragging && idx == m.col && i == m.row:
			style = m.styles.Selected
		}
		lines = append(lines, m.renderCard(card.Item, style)...)
	}
	lines = append(lines, m.renderGap(c.Gaps[len(c.Gaps)-1], dragging))
	return lines
}

// renderGap draws the drop marker when the pointer rests on the gap
func (m Model) renderGap(r kanban.Rect, dragging bool) string {
	w := m.layout.ColWidth
	if dragging && r.Contains(m.pointer) {
		return m.styles.DropMarker.Render(strings.Repeat("━", w))
	}
	return strings.Repeat(" ", w)
}

func (m Model) renderCard(it models.OrderedItem, border lipgloss.Style) []string {
	w := m.layout.ColWidth
	inner := w - 2

	text := it.Payload.Title
	if it.Payload.Kind == models.KindDeal && !it.Payload.Value.IsZero() {
		text += " · " + it.Payload.Value.StringFixed(0) + " " + it.Payload.Currency
	}
	body := m.styles.Task
	switch {
	case it.Payload.DueAt != nil && it.Payload.Status != models.StatusDone && it.Payload.DueAt.Before(m.now()):
		body = m.styles.Overdue
	case it.Payload.Kind == models.KindDeal:
		body = m.styles.Deal
	}

	return []string{
		border.Render("╭" + strings.Repeat("─", inner) + "╮"),
		border.Render("│") + body.Render(pad(truncate(text, inner), inner)) + border.Render("│"),
		border.Render("╰" + strings.Repeat("─", inner) + "╯"),
	}
}

// truncate shortens s to at most n cells with an ellipsis
func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	if n <= 1 {
		return strings.Repeat(".", max(n, 0))
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// pad right-fills s with spaces to n cells
func pad(s string, n int) string {
	if gap := n - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
