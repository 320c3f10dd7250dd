// Package scheduler deletes delivered messages after their session's delay.
//
// Pending deletions live only in process memory: if the process exits before
// a delay elapses, that deletion never happens.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"tg-filedrop/internal/crash"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/transport"

	"go.uber.org/multierr"
)

// deleteTimeout bounds one whole deletion pass
const deleteTimeout = 2 * time.Minute

// Clock is the part of time the scheduler depends on
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// Scheduler owns every deferred deletion task. Tasks cannot be cancelled or
// rescheduled once accepted.
type Scheduler struct {
	deleter transport.Deleter
	clock   Clock

	pending   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New creates a Scheduler that removes messages through deleter
func New(deleter transport.Deleter, opts ...Option) *Scheduler {
	s := &Scheduler{deleter: deleter, clock: realClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arranges for messageIDs in chatID to be deleted after
// delayMinutes. It never blocks and never fails; an empty id list or a
// non-positive delay schedules nothing.
func (s *Scheduler) Schedule(chatID int64, messageIDs []int, delayMinutes int) {
	if len(messageIDs) == 0 || delayMinutes <= 0 {
		return
	}

	ids := make([]int, len(messageIDs))
	copy(ids, messageIDs)

	s.pending.Add(1)
	logger.Debugf("Scheduled deletion of %d messages in chat %d after %d minutes", len(ids), chatID, delayMinutes)

	s.clock.AfterFunc(time.Duration(delayMinutes)*time.Minute, func() {
		defer crash.RecoverWithStack("scheduled-deletion")
		defer s.pending.Add(-1)
		s.run(chatID, ids)
	})
}

func (s *Scheduler) run(chatID int64, ids []int) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	var errs error
	for _, id := range ids {
		err := s.deleter.Delete(ctx, chatID, id)
		if err == nil {
			s.completed.Add(1)
			continue
		}
		s.failed.Add(1)
		if errors.Is(err, transport.ErrMessageNotFound) {
			logger.Debugf("Message %d in chat %d was already gone", id, chatID)
		} else {
			logger.Warningf("Failed to delete message %d in chat %d: %v", id, chatID, err)
		}
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		logger.Infof("Deletion in chat %d finished: %d of %d messages could not be deleted",
			chatID, len(multierr.Errors(errs)), len(ids))
		return
	}
	logger.Debugf("Deleted %d messages in chat %d", len(ids), chatID)
}

// Stats is a snapshot of the scheduler counters
type Stats struct {
	Pending int64 `json:"pending_tasks"`
	Deleted int64 `json:"deleted_messages"`
	Failed  int64 `json:"failed_deletions"`
}

// Stats returns the current counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		Pending: s.pending.Load(),
		Deleted: s.completed.Load(),
		Failed:  s.failed.Load(),
	}
}
