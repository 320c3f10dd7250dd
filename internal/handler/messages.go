package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-filedrop/internal/broadcast"
	"tg-filedrop/internal/crash"
	"tg-filedrop/internal/delivery"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/transport"
	"tg-filedrop/internal/upload"
)

// handleMessage takes every private message no command handler claimed
func (h *Handler) handleMessage(ctx *th.Context, message telego.Message) error {
	c := ctx.Context()
	userID := message.From.ID

	if h.app.IsOwner(userID) {
		if kind := h.app.Inputs.Take(userID); kind != models.InputNone {
			return h.handlePendingInput(c, message, kind)
		}
		if h.app.Uploads.State(userID) != upload.StateIdle {
			return h.handleUploadFile(c, message)
		}
	}

	_, err := h.reply(c, message.Chat.ID, models.T("unknown_input"), nil)
	return err
}

func (h *Handler) handleUploadFile(ctx context.Context, message telego.Message) error {
	operatorID := message.From.ID
	item, ok := transport.FileFromMessage(message)
	if !ok {
		item = models.FileItem{Kind: models.MediaText}
	}

	count, err := h.app.Uploads.AddFile(operatorID, item)
	switch {
	case errors.Is(err, upload.ErrUnsupportedKind):
		_, err = h.reply(ctx, message.Chat.ID, models.T("upload_unsupported"), nil)
		return err
	case errors.Is(err, upload.ErrWrongState):
		_, err = h.reply(ctx, message.Chat.ID, models.T("upload_wrong_step"), nil)
		return err
	case err != nil:
		return err
	}

	h.mirrorUpload(ctx, message)
	return h.replyTracked(ctx, operatorID, message.Chat.ID, models.T("upload_file_added", item.Kind.Label(), count), nil)
}

// mirrorUpload forwards an accepted file to the upload channel when one is set
func (h *Handler) mirrorUpload(ctx context.Context, message telego.Message) {
	channelID := h.app.Config.Bot.UploadChannelID
	if channelID == 0 {
		return
	}
	forwarder, ok := h.app.Transport.(transport.Forwarder)
	if !ok {
		return
	}
	if err := forwarder.Forward(ctx, channelID, message.Chat.ID, message.MessageID); err != nil {
		logger.Errorf("Failed to forward to upload channel: %v", err)
	}
}

func (h *Handler) handlePendingInput(ctx context.Context, message telego.Message, kind models.InputKind) error {
	switch kind {
	case models.InputBroadcast:
		return h.startBroadcast(ctx, message)
	case models.InputStartText, models.InputHelpText:
		messageType := models.MessageTypeStart
		if kind == models.InputHelpText {
			messageType = models.MessageTypeHelp
		}
		if message.Text == "" {
			h.app.Inputs.Expect(message.From.ID, kind)
			_, err := h.reply(ctx, message.Chat.ID, models.T("setmessage_prompt", messageLabel(messageType)), nil)
			return err
		}
		if err := h.app.Messages.SetText(messageType, message.Text); err != nil {
			return fmt.Errorf("save %s: %w", messageType, err)
		}
		_, err := h.reply(ctx, message.Chat.ID, models.T("setmessage_done", messageLabel(messageType)), nil)
		return err
	}
	return nil
}

// startBroadcast fans the message out in the background and reports the
// totals to the owner when done
func (h *Handler) startBroadcast(ctx context.Context, message telego.Message) error {
	payload, ok := transport.PayloadFromMessage(message)
	if !ok || !broadcast.Supports(payload.Kind) {
		_, err := h.reply(ctx, message.Chat.ID, models.T("broadcast_unsupported"), nil)
		return err
	}

	recipients, err := h.app.Users.ListRecipients()
	if err != nil {
		return fmt.Errorf("list broadcast recipients: %w", err)
	}
	if _, err := h.reply(ctx, message.Chat.ID, models.T("broadcast_starting", len(recipients)), nil); err != nil {
		logger.Warningf("Error sending broadcast notice: %v", err)
	}

	h.status.broadcasts.Add(1)
	ownerChat := message.Chat.ID
	crash.SafeGoroutine("broadcast", func() {
		// the pass outlives the update that started it
		bgCtx := context.Background()
		result, err := h.app.Broadcast.Broadcast(bgCtx, payload, recipients)
		if err != nil {
			logger.Errorf("Broadcast failed: %v", err)
			return
		}
		text := models.T("broadcast_done", result.Succeeded, result.Failed, result.Total)
		if _, err := h.reply(bgCtx, ownerChat, text, nil); err != nil {
			logger.Warningf("Error sending broadcast summary: %v", err)
		}
	})
	return nil
}

// deliver streams a session to the requester with progress notices
func (h *Handler) deliver(ctx context.Context, requesterID, chatID int64, sessionID string) error {
	h.status.deliveries.Add(1)

	req := delivery.Request{
		SessionID:   sessionID,
		RequesterID: requesterID,
		ChatID:      chatID,
		OnStart: func(session *models.UploadSession) {
			if _, err := h.reply(ctx, chatID, models.T("delivery_starting", session.FileCount), nil); err != nil {
				logger.Warningf("Error sending delivery notice: %v", err)
			}
		},
	}

	for outcome, err := range h.app.Delivery.Deliver(ctx, req) {
		if err != nil {
			logger.Errorf("Delivery of session %s failed: %v", sessionID, err)
			_, sendErr := h.reply(ctx, chatID, models.T("internal_error"), nil)
			return sendErr
		}

		var text string
		switch outcome.Kind {
		case delivery.OutcomeNotFound:
			text = models.T("delivery_not_found")
		case delivery.OutcomeFailed:
			text = models.T("delivery_failed", outcome.Index+1)
		case delivery.OutcomeSummary:
			if outcome.Summary.ScheduledDeleteMinutes > 0 {
				text = models.T("delivery_autodelete", models.FormatMinutes(outcome.Summary.ScheduledDeleteMinutes))
			}
		}
		if text == "" {
			continue
		}
		if _, err := h.reply(ctx, chatID, text, nil); err != nil {
			logger.Warningf("Error sending delivery notice: %v", err)
		}
	}
	return nil
}
