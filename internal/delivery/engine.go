// Package delivery sends the files of a stored session to a requester.
package delivery

import (
	"context"
	"errors"
	"iter"
	"time"

	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/storage"
	"tg-filedrop/internal/transport"

	"golang.org/x/time/rate"
)

// OutcomeKind tags a delivery outcome
type OutcomeKind int

const (
	OutcomeDelivered OutcomeKind = iota
	OutcomeFailed
	OutcomeNotFound
	OutcomeSummary
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeSummary:
		return "summary"
	}
	return "unknown"
}

// Outcome is one step of a delivery pass. Item outcomes carry Index, Item and
// either MessageID or Err; the final outcome carries Summary.
type Outcome struct {
	Kind      OutcomeKind
	Index     int
	Item      models.FileItem
	MessageID int
	Err       error
	Summary   *Summary
}

// Summary closes a delivery pass
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// ScheduledDeleteMinutes is non-zero when a deletion task was scheduled
	ScheduledDeleteMinutes int
}

// DeletionScheduler accepts delivered messages for deferred removal
type DeletionScheduler interface {
	Schedule(chatID int64, messageIDs []int, delayMinutes int)
}

// Request describes one delivery
type Request struct {
	SessionID   string
	RequesterID int64
	ChatID      int64
	// OnStart, when set, runs once the session is found and before any send
	OnStart func(session *models.UploadSession)
}

// Engine resolves sessions and fans their files out to requesters
type Engine struct {
	sessions  storage.SessionStore
	sender    transport.Sender
	scheduler DeletionScheduler
	interval  time.Duration
}

// NewEngine creates an Engine. interval is the minimum spacing between two
// sends of the same pass.
func NewEngine(sessions storage.SessionStore, sender transport.Sender, scheduler DeletionScheduler, interval time.Duration) *Engine {
	return &Engine{
		sessions:  sessions,
		sender:    sender,
		scheduler: scheduler,
		interval:  interval,
	}
}

// Deliver returns the outcome sequence of one pass. Every iteration of the
// sequence is a fresh pass that re-reads the session. A lookup that fails for
// any reason other than a missing session yields a single error.
//
// Once the session is found the pass always runs to the end: if the consumer
// stops early the remaining files are still sent and deletion is still
// scheduled, only the outcomes are no longer reported.
func (e *Engine) Deliver(ctx context.Context, req Request) iter.Seq2[Outcome, error] {
	return func(yield func(Outcome, error) bool) {
		session, err := e.sessions.Get(ctx, req.SessionID)
		if errors.Is(err, storage.ErrSessionNotFound) {
			yield(Outcome{Kind: OutcomeNotFound}, nil)
			return
		}
		if err != nil {
			yield(Outcome{}, err)
			return
		}

		consuming := true
		emit := func(o Outcome) {
			if consuming {
				consuming = yield(o, nil)
			}
		}

		if req.OnStart != nil {
			req.OnStart(session)
		}

		summary := e.run(ctx, session, req, emit)
		emit(Outcome{Kind: OutcomeSummary, Summary: summary})
	}
}

func (e *Engine) run(ctx context.Context, session *models.UploadSession, req Request, emit func(Outcome)) *Summary {
	items := session.Items()
	protect := session.EffectiveProtection(req.RequesterID)
	summary := &Summary{Total: len(items)}

	var limiter *rate.Limiter
	if e.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(e.interval), 1)
	}

	delivered := make([]int, 0, len(items))
	for i, item := range items {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				logger.Debugf("Send spacing skipped for session %s: %v", session.SessionID, err)
			}
		}

		messageID, err := e.sender.Send(ctx, req.ChatID, transport.ItemPayload(item, protect))
		if err != nil {
			summary.Failed++
			logger.Warningf("Session %s item %d (%s) failed for %d: %v", session.SessionID, i, item.Kind, req.ChatID, err)
			emit(Outcome{Kind: OutcomeFailed, Index: i, Item: item, Err: err})
			continue
		}

		summary.Succeeded++
		delivered = append(delivered, messageID)
		emit(Outcome{Kind: OutcomeDelivered, Index: i, Item: item, MessageID: messageID})
	}

	if req.RequesterID != session.OwnerID && session.AutoDeleteMinutes > 0 && len(delivered) > 0 {
		e.scheduler.Schedule(req.ChatID, delivered, session.AutoDeleteMinutes)
		summary.ScheduledDeleteMinutes = session.AutoDeleteMinutes
	}

	logger.Infof("Session %s delivered to %d: %d/%d succeeded", session.SessionID, req.RequesterID, summary.Succeeded, summary.Total)
	return summary
}
