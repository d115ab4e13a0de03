package tui

import (
	"charm.land/lipgloss/v2"

	"github.com/thenoetrevino/crmboard/internal/config/colors"
	"github.com/thenoetrevino/crmboard/internal/services/board"
)

// Styles holds the rendered look of the board, derived from a color scheme
type Styles struct {
	Title        lipgloss.Style
	Subtle       lipgloss.Style
	ColumnHeader lipgloss.Style
	Card         lipgloss.Style
	Selected     lipgloss.Style
	Dragging     lipgloss.Style
	DropMarker   lipgloss.Style
	Deal         lipgloss.Style
	Task         lipgloss.Style
	Overdue      lipgloss.Style

	notice map[board.NoticeLevel]noticeStyle
}

type noticeStyle struct {
	icon  string
	title string
	color string
}

// NewStyles builds styles from scheme, falling back to the default palette
func NewStyles(scheme *colors.ColorScheme) Styles {
	if scheme == nil {
		scheme = colors.Default()
	}
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Title:        fg(scheme.Title).Bold(true),
		Subtle:       fg(scheme.Subtle),
		ColumnHeader: fg(scheme.ColumnBorder).Bold(true),
		Card:         fg(scheme.CardBorder),
		Selected:     fg(scheme.Accent).Bold(true),
		Dragging:     fg(scheme.DraggingBorder).Bold(true),
		DropMarker:   fg(scheme.DropTarget).Bold(true),
		Deal:         fg(scheme.Deal),
		Task:         fg(scheme.Task),
		Overdue:      fg(scheme.Overdue),
		notice: map[board.NoticeLevel]noticeStyle{
			board.NoticeInfo:    {icon: "🔔", title: "Info", color: scheme.Info},
			board.NoticeWarning: {icon: "⚠", title: "Warning", color: scheme.Warning},
			board.NoticeError:   {icon: "✕", title: "Error", color: scheme.Error},
		},
	}
}

// RenderNotice renders a bordered banner for n
func (s Styles) RenderNotice(n board.Notice) string {
	ns, ok := s.notice[n.Level]
	if !ok {
		ns = s.notice[board.NoticeInfo]
	}
	color := lipgloss.Color(ns.color)

	header := lipgloss.NewStyle().Foreground(color).Bold(true).Render(ns.icon + " " + ns.title)
	body := lipgloss.NewStyle().Foreground(color).Render(n.Message)
	content := lipgloss.JoinVertical(lipgloss.Left, header, body)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(content)
}
