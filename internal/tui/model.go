package tui

import (
	"context"
	"time"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"

	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/services/board"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// noticeTTL is how long a notice banner stays up
const noticeTTL = 4 * time.Second

// refreshTimeout bounds a user triggered refresh
const refreshTimeout = 5 * time.Second

// filterPreset is one entry of the filter cycle
type filterPreset struct {
	name  string
	build func(now time.Time) kanban.Filter
}

var filterPresets = []filterPreset{
	{name: "all", build: func(time.Time) kanban.Filter { return kanban.Filter{} }},
	{name: "open", build: func(time.Time) kanban.Filter {
		return kanban.Filter{Status: models.StatusOpen}
	}},
	{name: "overdue", build: func(now time.Time) kanban.Filter {
		return kanban.Filter{Status: models.StatusOverdue, Now: now}
	}},
	{name: "high priority", build: func(time.Time) kanban.Filter {
		return kanban.Filter{Priorities: []types.PriorityID{types.PriorityHigh, types.PriorityCritical}}
	}},
	{name: "due this week", build: func(now time.Time) kanban.Filter {
		to := now.AddDate(0, 0, 7)
		return kanban.Filter{From: &now, To: &to, Now: now}
	}},
}

// noticeExpiredMsg clears the banner shown at At
type noticeExpiredMsg struct {
	At time.Time
}

// Model is the interactive board. It renders the filtered view of one board
// session and turns keys and mouse gestures into drags and moves.
type Model struct {
	ctx    context.Context
	svc    board.Service
	bridge *Bridge
	unsub  func()

	keys   KeyMap
	help   help.Model
	styles Styles
	now    func() time.Time

	width  int
	height int
	layout Layout

	// col and row select a card while idle; slot is the gap targeted while dragging
	col, row int
	slot     int
	pointer  kanban.Point
	intent   kanban.DropIntent
	mouse    bool

	filterIdx int
	showHelp  bool

	notice   *board.Notice
	quitting bool
}

// New creates the board model for svc. bridge must be the notifier the
// session was opened with, so write path notices reach the UI.
func New(ctx context.Context, svc board.Service, cfg *config.Config, bridge *Bridge) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	if bridge == nil {
		bridge = NewBridge()
	}
	m := Model{
		ctx:    ctx,
		svc:    svc,
		bridge: bridge,
		keys:   NewKeyMap(cfg.KeyMappings),
		help:   help.New(),
		styles: NewStyles(&cfg.ColorScheme),
		now:    time.Now,
		width:  120,
		height: 40,
		intent: kanban.NoIntent(),
	}
	m.unsub = svc.Subscribe(bridge.Listener())
	m.relayout()
	return m
}

// Init starts waiting for store changes and notices
func (m Model) Init() tea.Cmd {
	return m.bridge.Wait()
}

// Close detaches the model from its session
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	m.bridge.Close()
}

// Dragging reports the dragged item, if any
func (m Model) Dragging() (types.ItemID, bool) {
	return m.svc.Dragging()
}

// Selected returns the card under the idle cursor
func (m Model) Selected() (models.OrderedItem, bool) {
	c, ok := m.layout.Column(m.col)
	if !ok || m.row < 0 || m.row >= len(c.Cards) {
		return models.OrderedItem{}, false
	}
	return c.Cards[m.row].Item, true
}

// Intent is the drop target the pointer currently resolves to
func (m Model) Intent() kanban.DropIntent {
	return m.intent
}

// Notice is the banner currently shown
func (m Model) Notice() (board.Notice, bool) {
	if m.notice == nil {
		return board.Notice{}, false
	}
	return *m.notice, true
}

// FilterName names the active filter preset
func (m Model) FilterName() string {
	return filterPresets[m.filterIdx].name
}

// relayout rebuilds geometry from the current view and keeps the cursor on
// the same card when it is still visible.
func (m *Model) relayout() {
	selected, hadSelection := m.Selected()
	m.layout = NewLayout(m.svc.View(), m.width, m.height)

	if _, dragging := m.svc.Dragging(); dragging {
		m.clampSlot()
		m.placePointer()
		m.resolve()
		return
	}
	if hadSelection {
		if col, row, ok := m.layout.Locate(selected.ID); ok {
			m.col, m.row = col, row
		}
	}
	m.clampCursor()
	m.placePointer()
}

func (m *Model) clampCursor() {
	n := len(m.layout.Columns)
	if n == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = min(max(m.col, 0), n-1)
	cards := len(m.layout.Columns[m.col].Cards)
	m.row = min(max(m.row, 0), max(cards-1, 0))
}

func (m *Model) clampSlot() {
	m.clampCursor()
	if c, ok := m.layout.Column(m.col); ok {
		m.slot = min(max(m.slot, 0), len(c.Gaps)-1)
	}
}

// placePointer moves the virtual pointer onto the current card or slot.
// A mouse drag owns the pointer and is left alone.
func (m *Model) placePointer() {
	if m.mouse {
		return
	}
	if _, dragging := m.svc.Dragging(); dragging {
		if p, ok := m.layout.GapCenter(m.col, m.slot); ok {
			m.pointer = p
		}
		return
	}
	if p, ok := m.layout.CardCenter(m.col, m.row); ok {
		m.pointer = p
		return
	}
	if c, ok := m.layout.Column(m.col); ok {
		m.pointer = c.Rect.Center()
	}
}

// resolve recomputes the drop intent under the pointer
func (m *Model) resolve() {
	m.intent = m.svc.Resolve(m.pointer, m.layout.Droppable)
}

func (m *Model) setNotice(n board.Notice) tea.Cmd {
	if n.At.IsZero() {
		n.At = m.now()
	}
	m.notice = &n
	at := n.At
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{At: at}
	})
}

func (m *Model) fail(msg string, err error) tea.Cmd {
	return m.setNotice(board.Notice{Level: board.NoticeError, Message: msg + ": " + err.Error(), Err: err})
}
