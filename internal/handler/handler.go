package handler

import (
	"context"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-filedrop/internal/app"
	"tg-filedrop/internal/crash"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/transport"
)

// maxConcurrentHandlers bounds updates processed at the same time
const maxConcurrentHandlers = 100

// Handler routes bot updates to the application components
type Handler struct {
	app    *app.Context
	bot    *telego.Bot
	status *Status

	semaphore chan struct{}
	inflight  sync.WaitGroup

	// image file ids waiting for the owner to pick start or help
	imagesMu      sync.Mutex
	pendingImages map[int64]string
}

// New creates a Handler
func New(a *app.Context, bot *telego.Bot) *Handler {
	return &Handler{
		app:           a,
		bot:           bot,
		status:        NewStatus(),
		semaphore:     make(chan struct{}, maxConcurrentHandlers),
		pendingImages: make(map[int64]string),
	}
}

// Status exposes the processing counters
func (h *Handler) Status() *Status {
	return h.status
}

// Register attaches every handler to bh. Order matters: the first matching
// handler wins, so the catch-all message handler goes last.
func (h *Handler) Register(bh *th.BotHandler) {
	commands := map[string]func(*th.Context, telego.Message) error{
		"start":      h.handleStart,
		"help":       h.handleHelp,
		"upload":     h.ownerOnly(h.handleUpload),
		"d":          h.ownerOnly(h.handleDone),
		"done":       h.ownerOnly(h.handleDone),
		"c":          h.ownerOnly(h.handleCancel),
		"cancel":     h.ownerOnly(h.handleCancel),
		"broadcast":  h.ownerOnly(h.handleBroadcast),
		"stats":      h.ownerOnly(h.handleStats),
		"setmessage": h.ownerOnly(h.handleSetMessage),
		"setimage":   h.ownerOnly(h.handleSetImage),
	}
	for command, fn := range commands {
		bh.HandleMessage(h.message(fn), th.CommandEqual(command))
	}

	bh.HandleMessage(h.message(h.handleMessage), th.AnyMessage())

	bh.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		return h.guard(func() error {
			h.status.callbacks.Add(1)
			h.registerUser(ctx.Context(), query.From)
			return h.handleCallback(ctx, query)
		})
	}, th.AnyCallbackQueryWithMessage())
}

// message wraps fn with private-chat filtering, user tracking and counters
func (h *Handler) message(fn func(*th.Context, telego.Message) error) th.MessageHandler {
	return func(ctx *th.Context, message telego.Message) error {
		if message.From == nil || message.From.IsBot || message.Chat.Type != telego.ChatTypePrivate {
			return nil
		}
		return h.guard(func() error {
			h.status.messages.Add(1)
			h.registerUser(ctx.Context(), *message.From)
			return fn(ctx, message)
		})
	}
}

// guard bounds concurrency, tracks in-flight work and keeps panics local
func (h *Handler) guard(fn func() error) (err error) {
	h.semaphore <- struct{}{}
	h.inflight.Add(1)
	defer func() {
		<-h.semaphore
		h.inflight.Done()
	}()
	defer crash.RecoverWithStack("update-handler")

	if err = fn(); err != nil {
		h.status.errors.Add(1)
		logger.Warningf("Handler error: %v", err)
	}
	return err
}

func (h *Handler) ownerOnly(fn func(*th.Context, telego.Message) error) func(*th.Context, telego.Message) error {
	return func(ctx *th.Context, message telego.Message) error {
		if !h.app.IsOwner(message.From.ID) {
			_, err := h.reply(ctx.Context(), message.Chat.ID, models.T("owner_only"), nil)
			return err
		}
		return fn(ctx, message)
	}
}

func (h *Handler) registerUser(ctx context.Context, from telego.User) {
	user := &models.BotUser{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := h.app.Users.Upsert(user, time.Now()); err != nil {
		logger.Warningf("Failed to record user %d: %v", from.ID, err)
	}
}

// reply sends an HTML text message through the transport
func (h *Handler) reply(ctx context.Context, chatID int64, text string, markup *telego.InlineKeyboardMarkup) (int, error) {
	return h.app.Transport.Send(ctx, chatID, transport.Payload{
		Kind:        models.MediaText,
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: markup,
	})
}

// WaitForHandlers waits until in-flight handlers finish or timeout passes
func (h *Handler) WaitForHandlers(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		logger.Warningf("Timed out waiting for %d in-flight handlers", len(h.semaphore))
		return false
	}
}
