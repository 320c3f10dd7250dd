package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tg-filedrop/internal/models"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
)

var (
	// ErrKindMismatch means the remote side refused the file under its recorded kind
	ErrKindMismatch = errors.New("file rejected for its recorded kind")
	// ErrUnsupportedKind is returned for payload kinds with no send method
	ErrUnsupportedKind = errors.New("unsupported payload kind")
	// ErrMessageNotFound is returned by Delete when the message is already gone
	ErrMessageNotFound = errors.New("message not found")
	// ErrForbidden is returned when the bot may no longer act in the chat
	ErrForbidden = errors.New("forbidden")
)

// Payload is one kind-tagged message. For media kinds Text is the caption.
type Payload struct {
	Kind           models.MediaKind
	FileID         string
	Text           string
	Entities       []telego.MessageEntity
	ParseMode      string
	ReplyMarkup    *telego.InlineKeyboardMarkup
	ProtectContent bool
}

// Sender sends a payload and returns the produced message id
type Sender interface {
	Send(ctx context.Context, chatID int64, p Payload) (int, error)
}

// Deleter removes a previously sent message
type Deleter interface {
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Forwarder re-posts an existing message into another chat
type Forwarder interface {
	Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) error
}

// Transport is the full chat primitive used by the delivery side
type Transport interface {
	Sender
	Deleter
}

// TelegoTransport implements Transport on the Telegram Bot API
type TelegoTransport struct {
	bot *telego.Bot
}

// New wraps bot
func New(bot *telego.Bot) *TelegoTransport {
	return &TelegoTransport{bot: bot}
}

// Send dispatches on p.Kind; there is no fallback to another kind
func (t *TelegoTransport) Send(ctx context.Context, chatID int64, p Payload) (int, error) {
	var (
		msg *telego.Message
		err error
	)

	// telego ignores a nil interface but not a typed nil pointer
	var markup telego.ReplyMarkup
	if p.ReplyMarkup != nil {
		markup = p.ReplyMarkup
	}

	switch p.Kind {
	case models.MediaText:
		msg, err = t.bot.SendMessage(ctx, &telego.SendMessageParams{
			ChatID:         tu.ID(chatID),
			Text:           p.Text,
			Entities:       p.Entities,
			ParseMode:      p.ParseMode,
			ProtectContent: p.ProtectContent,
			ReplyMarkup:    markup,
		})
	case models.MediaPhoto:
		msg, err = t.bot.SendPhoto(ctx, &telego.SendPhotoParams{
			ChatID:          tu.ID(chatID),
			Photo:           tu.FileFromID(p.FileID),
			Caption:         p.Text,
			CaptionEntities: p.Entities,
			ParseMode:       p.ParseMode,
			ProtectContent:  p.ProtectContent,
			ReplyMarkup:     markup,
		})
	case models.MediaVideo:
		msg, err = t.bot.SendVideo(ctx, &telego.SendVideoParams{
			ChatID:          tu.ID(chatID),
			Video:           tu.FileFromID(p.FileID),
			Caption:         p.Text,
			CaptionEntities: p.Entities,
			ParseMode:       p.ParseMode,
			ProtectContent:  p.ProtectContent,
			ReplyMarkup:     markup,
		})
	case models.MediaDocument:
		msg, err = t.bot.SendDocument(ctx, &telego.SendDocumentParams{
			ChatID:          tu.ID(chatID),
			Document:        tu.FileFromID(p.FileID),
			Caption:         p.Text,
			CaptionEntities: p.Entities,
			ParseMode:       p.ParseMode,
			ProtectContent:  p.ProtectContent,
			ReplyMarkup:     markup,
		})
	case models.MediaAudio:
		msg, err = t.bot.SendAudio(ctx, &telego.SendAudioParams{
			ChatID:          tu.ID(chatID),
			Audio:           tu.FileFromID(p.FileID),
			Caption:         p.Text,
			CaptionEntities: p.Entities,
			ParseMode:       p.ParseMode,
			ProtectContent:  p.ProtectContent,
			ReplyMarkup:     markup,
		})
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, p.Kind)
	}

	if err != nil {
		return 0, fmt.Errorf("send %s to %d: %w", p.Kind, chatID, classify(err))
	}
	return msg.MessageID, nil
}

// Delete removes messageID from chatID
func (t *TelegoTransport) Delete(ctx context.Context, chatID int64, messageID int) error {
	err := t.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("delete message %d in %d: %w", messageID, chatID, classify(err))
	}
	return nil
}

// Forward copies a message into another chat with its origin attached
func (t *TelegoTransport) Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	_, err := t.bot.ForwardMessage(ctx, &telego.ForwardMessageParams{
		ChatID:     tu.ID(toChatID),
		FromChatID: tu.ID(fromChatID),
		MessageID:  messageID,
	})
	if err != nil {
		return fmt.Errorf("forward message %d to %d: %w", messageID, toChatID, classify(err))
	}
	return nil
}

// classify maps Bot API failures onto the package sentinels. The original
// error stays in the chain for logging.
func classify(err error) error {
	var apiErr *ta.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	desc := strings.ToLower(apiErr.Description)
	switch {
	case strings.Contains(desc, "type of file mismatch"),
		strings.Contains(desc, "can't use file of type"),
		strings.Contains(desc, "wrong type of the web page content"):
		return fmt.Errorf("%w: %w", ErrKindMismatch, err)
	case strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message not found"):
		return fmt.Errorf("%w: %w", ErrMessageNotFound, err)
	case apiErr.ErrorCode == 403,
		strings.Contains(desc, "message can't be deleted"),
		strings.Contains(desc, "not enough rights"):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return err
}
