package board

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/types"
)

// writeJob is one queued PersistPosition call, or a flush barrier when
// barrier is non-nil.
type writeJob struct {
	transitionID types.TransitionID
	itemID       types.ItemID
	columnID     types.ColumnID
	position     int

	// pre is the store contents right before this transition was applied
	pre kanban.Snapshot
	// gen is the rollback generation the transition was committed in
	gen uint64

	barrier chan struct{}
}

// runWriter is the single outbox goroutine. Jobs are persisted strictly in
// the order they were queued.
func (s *service) runWriter(ctx context.Context) {
	defer close(s.writerDone)

	for ctx.Err() == nil {
		job, ok := s.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			continue
		}
		if job.barrier != nil {
			close(job.barrier)
			continue
		}
		s.process(ctx, job)
	}
}

// next pops the oldest queued job
func (s *service) next() (writeJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return writeJob{}, false
	}
	job := s.queue[0]
	s.queue[0] = writeJob{}
	s.queue = s.queue[1:]
	return job, true
}

// signal wakes the writer without blocking
func (s *service) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *service) process(ctx context.Context, job writeJob) {
	if s.isStale(job) {
		s.discard(job)
		return
	}

	err := s.persist(ctx, job)
	if err != nil {
		s.fail(job, err)
		return
	}

	s.stats.persisted.Add(1)
	slog.Debug("move persisted",
		"transition_id", job.transitionID,
		"item_id", job.itemID,
		"column_id", job.columnID,
		"position", job.position)
	s.settle()
}

// persist calls the gateway with a per-attempt timeout, retrying transient
// errors with exponential backoff.
func (s *service) persist(ctx context.Context, job writeJob) error {
	var lastErr error
	attempts := s.opts.MaxAttempts

	for attempt := 0; attempt < attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		err := s.gateway.PersistPosition(attemptCtx, job.itemID, job.columnID, job.position)
		cancel()
		if err == nil {
			if attempt > 0 {
				slog.Debug("move persisted after retry",
					"attempt", attempt+1,
					"transition_id", job.transitionID)
			}
			return nil
		}

		lastErr = err
		if errors.Is(err, ErrRejected) || ctx.Err() != nil {
			break
		}

		if attempt < attempts-1 {
			delay := s.opts.BaseDelay * (1 << attempt)
			s.stats.retries.Add(1)
			slog.Debug("persist failed, retrying",
				"attempt", attempt+1,
				"max_attempts", attempts,
				"retry_delay", delay,
				"transition_id", job.transitionID,
				"error", err)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			}
		}
	}

	return lastErr
}

func (s *service) isStale(job writeJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return job.gen != s.gen
}

// fail rolls the store back to the state before job and invalidates every
// write queued on top of it.
func (s *service) fail(job writeJob, err error) {
	failure := &kanban.PersistenceFailure{
		TransitionID: job.transitionID,
		ItemID:       job.itemID,
		Err:          err,
	}

	s.mu.Lock()
	s.store.Rollback(job.pre)
	s.gen++
	s.mu.Unlock()

	s.stats.failed.Add(1)
	slog.Warn("move not saved, rolled back",
		"transition_id", job.transitionID,
		"item_id", job.itemID,
		"column_id", job.columnID,
		"position", job.position,
		"error", err)

	s.notify(Notice{
		Level:        NoticeError,
		Message:      "Move was not saved",
		ItemID:       job.itemID,
		TransitionID: job.transitionID,
		Err:          failure,
	})
	s.settle()
}

// discard drops a write whose transition was undone by an earlier rollback
func (s *service) discard(job writeJob) {
	s.stats.discarded.Add(1)
	slog.Info("queued move discarded after rollback",
		"transition_id", job.transitionID,
		"item_id", job.itemID)

	s.notify(Notice{
		Level:        NoticeWarning,
		Message:      "Move was undone because an earlier move failed",
		ItemID:       job.itemID,
		TransitionID: job.transitionID,
	})
	s.settle()
}

// settle marks one job done and runs a deferred refresh once the queue is empty
func (s *service) settle() {
	s.mu.Lock()
	s.pending--
	refresh := s.pending == 0 && s.dirty
	if refresh {
		s.dirty = false
	}
	s.mu.Unlock()

	if refresh {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			slog.Warn("deferred refresh failed", "board_id", s.boardID, "error", err)
		}
	}
}

func (s *service) notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
