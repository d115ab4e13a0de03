package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Gateway is the remote store the board reads from and writes moves to
type Gateway interface {
	FetchBoard(ctx context.Context, boardID types.BoardID) (*models.BoardData, error)
	PersistPosition(ctx context.Context, itemID types.ItemID, columnID types.ColumnID, position int) error
}

// Service drives one board session: drag gestures, explicit moves,
// filtering and the asynchronous write path.
type Service interface {
	BoardID() types.BoardID

	// Loading
	Refresh(ctx context.Context) error
	HandleRemoteChange(ctx context.Context) error

	// Reads
	Snapshot() kanban.Snapshot
	GetColumn(columnID types.ColumnID) []models.OrderedItem
	View() kanban.View
	Subscribe(fn kanban.Listener) func()

	// Filtering
	SetFilter(f kanban.Filter)
	Filter() kanban.Filter

	// Drag gestures
	BeginDrag(itemID types.ItemID) error
	Hover(zoneID string) error
	Resolve(pointer kanban.Point, zones []kanban.Droppable) kanban.DropIntent
	Drop(intent kanban.DropIntent) (Commit, error)
	Cancel()
	Dragging() (types.ItemID, bool)

	// Explicit moves
	MoveToColumn(itemID types.ItemID, columnID types.ColumnID, index int) (Commit, error)

	// Write path
	Pending() int
	Stats() Stats
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options tunes the write path
type Options struct {
	// Timeout bounds each PersistPosition attempt
	Timeout time.Duration
	// MaxAttempts is the number of tries per write, including the first
	MaxAttempts int
	// BaseDelay is the first retry delay; it doubles on every retry
	BaseDelay time.Duration
	// QueueSize caps unsettled writes; commits beyond it are refused
	QueueSize int
	Notifier  Notifier
}

// DefaultOptions returns the write path defaults
func DefaultOptions() Options {
	return Options{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
		QueueSize:   256,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = d.BaseDelay
	}
	if o.QueueSize <= 0 {
		o.QueueSize = d.QueueSize
	}
	return o
}

// Commit is the outcome of a drop or explicit move
type Commit struct {
	TransitionID types.TransitionID
	Transition   kanban.Transition
}

// NoOp reports whether nothing changed and nothing will be written
func (c Commit) NoOp() bool {
	return c.Transition.NoOp
}

// Stats counts write path outcomes
type Stats struct {
	Committed int64 `json:"committed"`
	Persisted int64 `json:"persisted"`
	Failed    int64 `json:"failed"`
	Discarded int64 `json:"discarded"`
	Retries   int64 `json:"retries"`
}

type counters struct {
	committed atomic.Int64
	persisted atomic.Int64
	failed    atomic.Int64
	discarded atomic.Int64
	retries   atomic.Int64
}

// service implements Service interface
type service struct {
	boardID  types.BoardID
	gateway  Gateway
	store    *kanban.Store
	tracker  *kanban.Tracker
	notifier Notifier
	opts     Options

	refreshGroup singleflight.Group

	// mu orders commits against rollbacks and guards the fields below
	mu      sync.Mutex
	filter  kanban.Filter
	gen     uint64
	pending int
	dirty   bool
	// commitSeq counts local commits so a load can tell its fetch is older
	commitSeq uint64
	loaded  bool
	closed  bool

	queue      []writeJob
	wake       chan struct{}
	stopWriter context.CancelFunc
	writerDone chan struct{}
	closeOnce  sync.Once

	stats counters
}

// NewService creates a board session and starts its writer goroutine.
// Call Close to stop it.
func NewService(boardID types.BoardID, gateway Gateway, opts Options) (Service, error) {
	if boardID == "" {
		return nil, ErrInvalidBoardID
	}
	opts = opts.withDefaults()

	store := kanban.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	s := &service{
		boardID:    boardID,
		gateway:    gateway,
		store:      store,
		tracker:    kanban.NewTracker(store),
		notifier:   opts.Notifier,
		opts:       opts,
		wake:       make(chan struct{}, 1),
		stopWriter: cancel,
		writerDone: make(chan struct{}),
	}
	go s.runWriter(ctx)
	return s, nil
}

func (s *service) BoardID() types.BoardID {
	return s.boardID
}

// maxRefetch bounds how often Refresh refetches when commits keep landing
// while its fetch is in flight
const maxRefetch = 3

// Refresh fetches the board and replaces the store contents.
// Concurrent calls share one fetch. While local writes are queued the load
// is deferred until the queue drains, so the board does not flicker back to
// a state that predates them and a later rollback cannot clobber it. A fetch
// that a local commit overtook is thrown away and refetched.
func (s *service) Refresh(ctx context.Context) error {
	if _, deferred := s.deferRefresh(); deferred {
		return nil
	}

	_, err, _ := s.refreshGroup.Do(string(s.boardID), func() (any, error) {
		for attempt := 0; attempt < maxRefetch; attempt++ {
			seq, deferred := s.deferRefresh()
			if deferred {
				return nil, nil
			}

			data, err := s.gateway.FetchBoard(ctx, s.boardID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch board: %w", err)
			}

			loaded, err := s.load(data, seq)
			if err != nil || loaded {
				return nil, err
			}
			slog.Debug("board fetch overtaken by a local move, refetching",
				"board_id", s.boardID,
				"attempt", attempt+1)
		}
		slog.Warn("board refresh gave up, local moves kept landing", "board_id", s.boardID)
		return nil, nil
	})
	return err
}

// load replaces the store with data unless a commit happened after seq was
// read. It reports whether the store was replaced or deferred.
func (s *service) load(data *models.BoardData, seq uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending > 0 {
		s.dirty = true
		slog.Debug("board load deferred", "board_id", s.boardID, "pending", s.pending)
		return true, nil
	}
	if s.commitSeq != seq {
		return false, nil
	}
	if err := s.store.LoadFromServer(data.Columns, data.Items); err != nil {
		return false, err
	}
	s.loaded = true
	slog.Debug("board loaded",
		"board_id", s.boardID,
		"columns", len(data.Columns),
		"items", len(data.Items))
	return true, nil
}

// deferRefresh marks the board dirty when writes are in flight. It returns
// the commit sequence a fetch started now would be checked against.
func (s *service) deferRefresh() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending > 0 {
		s.dirty = true
		return s.commitSeq, true
	}
	return s.commitSeq, false
}

// HandleRemoteChange reacts to a change made elsewhere
func (s *service) HandleRemoteChange(ctx context.Context) error {
	return s.Refresh(ctx)
}

func (s *service) Snapshot() kanban.Snapshot {
	return s.store.Snapshot()
}

func (s *service) GetColumn(columnID types.ColumnID) []models.OrderedItem {
	return s.store.GetColumn(columnID)
}

// View returns the current contents through the active filter
func (s *service) View() kanban.View {
	return kanban.NewView(s.store.Snapshot(), s.Filter())
}

// Subscribe registers fn for store changes. fn runs synchronously on the
// goroutine that changed the store and must not call back into the service.
func (s *service) Subscribe(fn kanban.Listener) func() {
	return s.store.Subscribe(fn)
}

func (s *service) SetFilter(f kanban.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

func (s *service) Filter() kanban.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// BeginDrag starts a drag of itemID
func (s *service) BeginDrag(itemID types.ItemID) error {
	if err := s.tracker.BeginDrag(itemID); err != nil {
		return fmt.Errorf("failed to begin drag: %w", err)
	}
	slog.Debug("drag started", "board_id", s.boardID, "item_id", itemID)
	return nil
}

func (s *service) Hover(zoneID string) error {
	return s.tracker.UpdateHover(zoneID)
}

// Resolve maps the pointer onto the zones laid out from View and returns
// the intent in unfiltered coordinates, ready for Drop.
func (s *service) Resolve(pointer kanban.Point, zones []kanban.Droppable) kanban.DropIntent {
	activeID, ok := s.tracker.Active()
	if !ok {
		return kanban.NoIntent()
	}

	view := s.View()
	visible := view.Snapshot()
	if zone, hit := kanban.Hit(pointer, zones, visible); hit {
		_ = s.tracker.UpdateHover(zone.ID)
	}
	intent := kanban.Resolve(activeID, pointer, zones, visible)
	return view.TranslateIntent(activeID, intent)
}

// Drop ends the drag. A none intent cancels and leaves the store untouched.
func (s *service) Drop(intent kanban.DropIntent) (Commit, error) {
	drop, err := s.tracker.EndDrag(intent)
	if err != nil {
		return Commit{}, fmt.Errorf("failed to end drag: %w", err)
	}
	if drop.Cancelled() {
		slog.Debug("drag cancelled", "board_id", s.boardID, "item_id", drop.ItemID)
		return Commit{Transition: kanban.Transition{ItemID: drop.ItemID, NoOp: true}}, nil
	}
	return s.commit(drop.ItemID, drop.Intent)
}

// Cancel aborts the current drag, if any
func (s *service) Cancel() {
	s.tracker.CancelDrag()
}

func (s *service) Dragging() (types.ItemID, bool) {
	return s.tracker.Active()
}

// MoveToColumn moves an item without a drag gesture. index is in the
// unfiltered column list with the item removed.
func (s *service) MoveToColumn(itemID types.ItemID, columnID types.ColumnID, index int) (Commit, error) {
	return s.commit(itemID, kanban.ColumnIntent(columnID, index))
}

// commit plans against the latest optimistic state, applies the transition
// and queues its write. Holding mu keeps queue order equal to commit order.
func (s *service) commit(itemID types.ItemID, intent kanban.DropIntent) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Commit{}, ErrClosed
	}
	if !s.loaded {
		return Commit{}, ErrNotLoaded
	}
	if s.pending >= s.opts.QueueSize {
		return Commit{}, ErrQueueFull
	}

	pre := s.store.Snapshot()
	tr, err := kanban.Plan(pre, itemID, intent)
	if err != nil {
		return Commit{}, fmt.Errorf("failed to plan move: %w", err)
	}
	if tr.NoOp {
		return Commit{Transition: tr}, nil
	}
	if err := s.store.ApplyTransition(tr); err != nil {
		return Commit{}, fmt.Errorf("failed to apply move: %w", err)
	}

	moved, _ := tr.Moved()
	c := Commit{TransitionID: types.NewTransitionID(), Transition: tr}
	s.pending++
	s.commitSeq++
	s.stats.committed.Add(1)

	slog.Info("move committed",
		"board_id", s.boardID,
		"transition_id", c.TransitionID,
		"item_id", itemID,
		"column_id", moved.ColumnID,
		"position", moved.Position)

	s.queue = append(s.queue, writeJob{
		transitionID: c.TransitionID,
		itemID:       itemID,
		columnID:     moved.ColumnID,
		position:     moved.Position,
		pre:          pre,
		gen:          s.gen,
	})
	s.signal()
	return c, nil
}

// Pending returns the number of writes not yet settled
func (s *service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *service) Stats() Stats {
	return Stats{
		Committed: s.stats.committed.Load(),
		Persisted: s.stats.persisted.Load(),
		Failed:    s.stats.failed.Load(),
		Discarded: s.stats.discarded.Load(),
		Retries:   s.stats.retries.Load(),
	}
}

// Flush waits until every write queued before the call has settled
func (s *service) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	s.mu.Lock()
	s.queue = append(s.queue, writeJob{barrier: barrier})
	s.mu.Unlock()
	s.signal()

	select {
	case <-barrier:
		return nil
	case <-s.writerDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further commits, drains the queue and stops the writer
func (s *service) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		err = s.Flush(ctx)
		s.stopWriter()
		<-s.writerDone
	})
	return err
}
