// Package broadcast sends one payload to every registered user.
//
// Progress is not checkpointed: a pass interrupted by a restart has to be
// started again and re-sends to everyone.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/transport"

	"golang.org/x/time/rate"
)

// ErrUnsupportedPayload is returned for payload kinds that cannot be broadcast
var ErrUnsupportedPayload = errors.New("payload kind cannot be broadcast")

// Result counts one pass
type Result struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Broadcaster fans payloads out with a minimum spacing between sends
type Broadcaster struct {
	sender   transport.Sender
	interval time.Duration
}

// New creates a Broadcaster
func New(sender transport.Sender, interval time.Duration) *Broadcaster {
	return &Broadcaster{sender: sender, interval: interval}
}

// Supports reports whether payloads of kind may be broadcast
func Supports(kind models.MediaKind) bool {
	switch kind {
	case models.MediaText, models.MediaPhoto, models.MediaVideo, models.MediaDocument:
		return true
	}
	return false
}

// Broadcast sends payload to each recipient in order. A failed recipient is
// counted and skipped; there are no retries and the pass is never aborted.
func (b *Broadcaster) Broadcast(ctx context.Context, payload transport.Payload, recipients []int64) (Result, error) {
	if !Supports(payload.Kind) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedPayload, payload.Kind)
	}

	var limiter *rate.Limiter
	if b.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(b.interval), 1)
	}

	result := Result{Total: len(recipients)}
	for _, chatID := range recipients {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				logger.Debugf("Broadcast spacing skipped: %v", err)
			}
		}

		if _, err := b.sender.Send(ctx, chatID, payload); err != nil {
			result.Failed++
			logger.Debugf("Broadcast to %d failed: %v", chatID, err)
			continue
		}
		result.Succeeded++
	}

	logger.Infof("Broadcast finished: %d succeeded, %d failed, %d total", result.Succeeded, result.Failed, result.Total)
	return result, nil
}
