package kanban

import (
	"fmt"
	"sync"

	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// Listener receives the store contents after every change
type Listener func(Snapshot)

// Store is the authoritative column to items mapping.
// It is mutated only by LoadFromServer, ApplyTransition and Rollback; each
// call is one atomic change followed by one notification.
type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	listeners map[int]Listener
	nextID    int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		snap:      Snapshot{lists: map[types.ColumnID][]models.OrderedItem{}},
		listeners: make(map[int]Listener),
	}
}

// LoadFromServer replaces the whole board. Per-column lists are derived from
// each item's ColumnID and Position only.
func (s *Store) LoadFromServer(columns []models.Column, items []models.OrderedItem) error {
	snap, err := NewSnapshot(columns, items)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	s.commit(func() Snapshot { return snap })
	return nil
}

// ApplyTransition replaces the source and target lists of t in one change.
// NoOp transitions leave the store and its version untouched.
func (s *Store) ApplyTransition(t Transition) error {
	if t.NoOp {
		return nil
	}

	var applyErr error
	s.commit(func() Snapshot {
		if err := s.snap.checkTransition(t); err != nil {
			applyErr = err
			return Snapshot{}
		}
		next := s.snap.clone()
		next.lists[t.TargetColumnID] = cloneItems(t.TargetItems)
		if !t.SameColumn() {
			next.lists[t.SourceColumnID] = cloneItems(t.SourceItems)
		}
		return next
	})
	return applyErr
}

// Rollback restores a snapshot captured earlier with Snapshot
func (s *Store) Rollback(snap Snapshot) {
	restored := snap.clone()
	s.commit(func() Snapshot { return restored })
}

// GetColumn returns a copy of a column's items in ascending position
func (s *Store) GetColumn(id types.ColumnID) []models.OrderedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Column(id)
}

// Columns returns the board columns in display order
func (s *Store) Columns() []models.Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Columns()
}

// Item returns an item by id
func (s *Store) Item(id types.ItemID) (models.OrderedItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Item(id)
}

// Snapshot returns a deep copy of the current contents
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Version increments once per change
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.version
}

// Subscribe registers fn for change notifications and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// commit swaps in the snapshot built by next under the write lock and then
// notifies listeners outside of it. A zero snapshot from next aborts.
func (s *Store) commit(next func() Snapshot) {
	s.mu.Lock()
	snap := next()
	if snap.lists == nil {
		s.mu.Unlock()
		return
	}
	snap.version = s.snap.version + 1
	s.snap = snap

	out := snap.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(out)
	}
}

// checkTransition verifies t only relocates items that the touched columns
// hold right now.
func (s Snapshot) checkTransition(t Transition) error {
	if !s.HasColumn(t.SourceColumnID) {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, t.SourceColumnID)
	}
	if !s.HasColumn(t.TargetColumnID) {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, t.TargetColumnID)
	}

	have := make(map[types.ItemID]int)
	for _, it := range s.lists[t.SourceColumnID] {
		have[it.ID]++
	}
	if !t.SameColumn() {
		for _, it := range s.lists[t.TargetColumnID] {
			have[it.ID]++
		}
	}

	lists := [][]models.OrderedItem{t.TargetItems}
	if !t.SameColumn() {
		lists = append(lists, t.SourceItems)
	}
	for _, list := range lists {
		for _, it := range list {
			have[it.ID]--
		}
	}
	for id, n := range have {
		if n != 0 {
			return fmt.Errorf("%w: item %q", ErrStaleTransition, id)
		}
	}
	return nil
}
