package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/transport"
	"tg-filedrop/internal/upload"
)

// handleStart delivers a session when the command carries a payload and shows
// the start message otherwise
func (h *Handler) handleStart(ctx *th.Context, message telego.Message) error {
	if sessionID, ok := upload.SessionIDFromStart(message.Text); ok {
		return h.deliver(ctx.Context(), message.From.ID, message.Chat.ID, sessionID)
	}
	return h.sendStaticMessage(ctx.Context(), message.Chat.ID, models.MessageTypeStart, helpKeyboard())
}

func (h *Handler) handleHelp(ctx *th.Context, message telego.Message) error {
	return h.sendStaticMessage(ctx.Context(), message.Chat.ID, models.MessageTypeHelp, nil)
}

// sendStaticMessage renders a configurable message, as a photo with caption
// when an image is set
func (h *Handler) sendStaticMessage(ctx context.Context, chatID int64, messageType string, markup *telego.InlineKeyboardMarkup) error {
	msg, err := h.app.Messages.Get(messageType)
	if err != nil {
		logger.Errorf("Failed to load %s: %v", messageType, err)
		_, err = h.reply(ctx, chatID, models.T("internal_error"), nil)
		return err
	}

	payload := transport.Payload{
		Kind:        models.MediaText,
		Text:        msg.Text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: markup,
	}
	if msg.ImageID != "" {
		payload.Kind = models.MediaPhoto
		payload.FileID = msg.ImageID
	}
	_, err = h.app.Transport.Send(ctx, chatID, payload)
	return err
}

func (h *Handler) handleUpload(ctx *th.Context, message telego.Message) error {
	c := ctx.Context()
	if err := h.app.Uploads.Start(message.From.ID); err != nil {
		if errors.Is(err, upload.ErrAlreadyInProgress) {
			_, err = h.reply(c, message.Chat.ID, models.T("upload_in_progress"), nil)
		}
		return err
	}

	h.app.Inputs.Clear(message.From.ID)
	return h.replyTracked(c, message.From.ID, message.Chat.ID, models.T("upload_started"), nil)
}

func (h *Handler) handleDone(ctx *th.Context, message telego.Message) error {
	c := ctx.Context()
	pending, err := h.app.Uploads.FinishCollecting(message.From.ID)
	switch {
	case errors.Is(err, upload.ErrEmptyBatch):
		_, err = h.reply(c, message.Chat.ID, models.T("upload_empty"), nil)
		return err
	case errors.Is(err, upload.ErrNotInProgress):
		_, err = h.reply(c, message.Chat.ID, models.T("upload_not_started"), nil)
		return err
	case errors.Is(err, upload.ErrWrongState):
		_, err = h.reply(c, message.Chat.ID, models.T("upload_wrong_step"), nil)
		return err
	case err != nil:
		return err
	}

	text := models.T("upload_summary", len(pending.Items), kindList(pending.Kinds()))
	return h.replyTracked(c, message.From.ID, message.Chat.ID, text, protectKeyboard())
}

func (h *Handler) handleCancel(ctx *th.Context, message telego.Message) error {
	c := ctx.Context()
	discarded, err := h.app.Uploads.Cancel(message.From.ID)
	if errors.Is(err, upload.ErrNotInProgress) {
		_, err = h.reply(c, message.Chat.ID, models.T("upload_not_started"), nil)
		return err
	}
	if err != nil {
		return err
	}

	h.cleanup(c, message.Chat.ID, discarded.UIMessageIDs)
	_, err = h.reply(c, message.Chat.ID, models.T("upload_cancelled"), nil)
	return err
}

func (h *Handler) handleBroadcast(ctx *th.Context, message telego.Message) error {
	h.app.Inputs.Expect(message.From.ID, models.InputBroadcast)
	_, err := h.reply(ctx.Context(), message.Chat.ID, models.T("broadcast_prompt"), nil)
	return err
}

func (h *Handler) handleStats(ctx *th.Context, message telego.Message) error {
	c := ctx.Context()
	stats, err := h.app.Stats.Collect(c)
	if err != nil {
		logger.Errorf("Failed to collect statistics: %v", err)
		_, err = h.reply(c, message.Chat.ID, models.T("internal_error"), nil)
		return err
	}

	text := models.T("stats",
		stats.TotalUsers,
		stats.ActiveUsers,
		stats.TotalSessions,
		stats.TotalUploads,
		stats.GeneratedAt.Format(time.DateTime),
	)
	_, err = h.reply(c, message.Chat.ID, text, nil)
	return err
}

func (h *Handler) handleSetMessage(ctx *th.Context, message telego.Message) error {
	markup := targetKeyboard(cbSetMsgPrefix, models.T("start_message_label"), models.T("help_message_label"))
	_, err := h.reply(ctx.Context(), message.Chat.ID, models.T("setmessage_choose"), markup)
	return err
}

// handleSetImage must be sent as a reply to the photo or document to use
func (h *Handler) handleSetImage(ctx *th.Context, message telego.Message) error {
	c := ctx.Context()
	if message.ReplyToMessage == nil {
		_, err := h.reply(c, message.Chat.ID, models.T("setimage_usage"), nil)
		return err
	}

	item, ok := transport.FileFromMessage(*message.ReplyToMessage)
	if !ok || (item.Kind != models.MediaPhoto && item.Kind != models.MediaDocument) {
		_, err := h.reply(c, message.Chat.ID, models.T("setimage_usage"), nil)
		return err
	}
	if item.FileID == "" {
		_, err := h.reply(c, message.Chat.ID, models.T("setimage_no_file"), nil)
		return err
	}

	h.imagesMu.Lock()
	h.pendingImages[message.From.ID] = item.FileID
	h.imagesMu.Unlock()

	markup := targetKeyboard(cbSetImgPrefix, models.T("start_message_label"), models.T("help_message_label"))
	_, err := h.reply(c, message.Chat.ID, models.T("setimage_choose"), markup)
	return err
}

// replyTracked sends a flow message and remembers it for cleanup
func (h *Handler) replyTracked(ctx context.Context, operatorID, chatID int64, text string, markup *telego.InlineKeyboardMarkup) error {
	messageID, err := h.reply(ctx, chatID, text, markup)
	if err != nil {
		return err
	}
	h.app.Uploads.TrackMessage(operatorID, messageID)
	return nil
}

// cleanup removes flow messages; failures only matter for the log
func (h *Handler) cleanup(ctx context.Context, chatID int64, messageIDs []int) {
	for _, id := range messageIDs {
		if err := h.app.Transport.Delete(ctx, chatID, id); err != nil {
			logger.Debugf("Could not remove flow message %d: %v", id, err)
		}
	}
}

func kindList(kinds []models.MediaKind) string {
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return strings.Join(names, ", ")
}
