package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/storage"
	"tg-filedrop/internal/upload"
)

// handleCallback routes inline keyboard presses
func (h *Handler) handleCallback(ctx *th.Context, query telego.CallbackQuery) error {
	c := ctx.Context()

	message, ok := query.Message.(*telego.Message)
	if !ok {
		return h.answer(c, query, "")
	}

	data := query.Data
	if data == cbHelp {
		if err := h.sendStaticMessage(c, message.Chat.ID, models.MessageTypeHelp, nil); err != nil {
			logger.Warningf("Error sending help: %v", err)
		}
		return h.answer(c, query, "")
	}

	if !h.app.IsOwner(query.From.ID) {
		return h.answer(c, query, models.T("owner_only"))
	}

	var err error
	switch {
	case data == cbProtectYes || data == cbProtectNo:
		err = h.onProtection(c, query.From.ID, message, data == cbProtectYes)
	case strings.HasPrefix(data, cbDeletePrefix):
		err = h.onDeleteTimer(c, query.From.ID, message, data)
	case strings.HasPrefix(data, cbSetMsgPrefix):
		err = h.onSetMessage(c, query.From.ID, message, data)
	case strings.HasPrefix(data, cbSetImgPrefix):
		err = h.onSetImage(c, query.From.ID, message, data)
	default:
		logger.Debugf("Ignoring unknown callback data %q", data)
	}

	if answerErr := h.answer(c, query, ""); answerErr != nil {
		logger.Debugf("Error answering callback: %v", answerErr)
	}
	return err
}

func (h *Handler) onProtection(ctx context.Context, operatorID int64, message *telego.Message, protect bool) error {
	if err := h.app.Uploads.SetProtection(operatorID, protect); err != nil {
		return h.replyFlowError(ctx, message.Chat.ID, err)
	}

	state := models.T("off")
	if protect {
		state = models.T("on")
	}
	return h.edit(ctx, message, models.T("protect_chosen", state), timerKeyboard())
}

func (h *Handler) onDeleteTimer(ctx context.Context, operatorID int64, message *telego.Message, data string) error {
	minutes, err := parseDeleteMinutes(data)
	if err != nil {
		_, err = h.reply(ctx, message.Chat.ID, models.T("timer_invalid"), nil)
		return err
	}

	result, err := h.app.Uploads.SetDeleteTimer(ctx, operatorID, minutes)
	if err != nil {
		return h.replyFlowError(ctx, message.Chat.ID, err)
	}

	h.removeFlowMessages(ctx, message.Chat.ID, result.UIMessageIDs, message.MessageID)

	session := result.Session
	protection := models.T("no")
	if session.ProtectContent {
		protection = models.T("yes")
	}
	text := models.T("upload_created",
		session.FileCount,
		protection,
		models.FormatMinutes(session.AutoDeleteMinutes),
		upload.BuildDeepLink(h.app.BotUsername, session.SessionID),
	)
	return h.edit(ctx, message, text, nil)
}

// removeFlowMessages deletes the prompts of a committed flow except keep,
// the keyboard message that now shows the link
func (h *Handler) removeFlowMessages(ctx context.Context, chatID int64, messageIDs []int, keep int) {
	stale := make([]int, 0, len(messageIDs))
	for _, id := range messageIDs {
		if id != keep {
			stale = append(stale, id)
		}
	}
	h.cleanup(ctx, chatID, stale)
}

// replyFlowError turns collection flow errors into operator messages
func (h *Handler) replyFlowError(ctx context.Context, chatID int64, err error) error {
	var key string
	switch {
	case errors.Is(err, upload.ErrInvalidTimer):
		key = "timer_invalid"
	case errors.Is(err, upload.ErrNotInProgress):
		key = "upload_not_started"
	case errors.Is(err, upload.ErrWrongState):
		key = "upload_wrong_step"
	case errors.Is(err, storage.ErrPersistence):
		logger.Errorf("Upload session could not be saved: %v", err)
		key = "upload_save_failed"
	default:
		return err
	}
	_, sendErr := h.reply(ctx, chatID, models.T(key), nil)
	return sendErr
}

func (h *Handler) onSetMessage(ctx context.Context, operatorID int64, message *telego.Message, data string) error {
	messageType, ok := parseMessageTarget(data, cbSetMsgPrefix)
	if !ok {
		return nil
	}

	kind := models.InputStartText
	if messageType == models.MessageTypeHelp {
		kind = models.InputHelpText
	}
	h.app.Inputs.Expect(operatorID, kind)
	return h.edit(ctx, message, models.T("setmessage_prompt", strings.ToLower(messageLabel(messageType))), nil)
}

func (h *Handler) onSetImage(ctx context.Context, operatorID int64, message *telego.Message, data string) error {
	messageType, ok := parseMessageTarget(data, cbSetImgPrefix)
	if !ok {
		return nil
	}

	h.imagesMu.Lock()
	imageID, found := h.pendingImages[operatorID]
	delete(h.pendingImages, operatorID)
	h.imagesMu.Unlock()

	if !found {
		return h.edit(ctx, message, models.T("setimage_no_file"), nil)
	}
	if err := h.app.Messages.SetImage(messageType, imageID); err != nil {
		logger.Errorf("Failed to save %s image: %v", messageType, err)
		return h.edit(ctx, message, models.T("internal_error"), nil)
	}
	return h.edit(ctx, message, models.T("setimage_done", messageLabel(messageType)), nil)
}

func (h *Handler) answer(ctx context.Context, query telego.CallbackQuery, text string) error {
	params := tu.CallbackQuery(query.ID)
	if text != "" {
		params = params.WithText(text)
	}
	return h.bot.AnswerCallbackQuery(ctx, params)
}

// edit replaces the text of a keyboard message; a nil markup removes the keyboard
func (h *Handler) edit(ctx context.Context, message *telego.Message, text string, markup *telego.InlineKeyboardMarkup) error {
	params := &telego.EditMessageTextParams{
		ChatID:    tu.ID(message.Chat.ID),
		MessageID: message.MessageID,
		Text:      text,
		ParseMode: telego.ModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, err := h.bot.EditMessageText(ctx, params)
	return err
}
