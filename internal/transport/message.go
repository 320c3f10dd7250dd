package transport

import (
	"tg-filedrop/internal/models"

	"github.com/mymmrac/telego"
)

// FileFromMessage extracts the uploadable file of msg. Photos resolve to the
// largest size. ok is false for messages without one of the upload kinds.
func FileFromMessage(msg telego.Message) (item models.FileItem, ok bool) {
	item.Caption = msg.Caption

	switch {
	case len(msg.Photo) > 0:
		item.Kind = models.MediaPhoto
		item.FileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		item.Kind = models.MediaVideo
		item.FileID = msg.Video.FileID
	case msg.Document != nil:
		item.Kind = models.MediaDocument
		item.FileID = msg.Document.FileID
	case msg.Audio != nil:
		item.Kind = models.MediaAudio
		item.FileID = msg.Audio.FileID
	default:
		return models.FileItem{}, false
	}
	return item, true
}

// PayloadFromMessage rebuilds msg as a payload that can be re-sent elsewhere,
// keeping caption entities and any inline keyboard
func PayloadFromMessage(msg telego.Message) (Payload, bool) {
	if item, ok := FileFromMessage(msg); ok {
		return Payload{
			Kind:        item.Kind,
			FileID:      item.FileID,
			Text:        item.Caption,
			Entities:    msg.CaptionEntities,
			ReplyMarkup: msg.ReplyMarkup,
		}, true
	}
	if msg.Text != "" {
		return Payload{
			Kind:        models.MediaText,
			Text:        msg.Text,
			Entities:    msg.Entities,
			ReplyMarkup: msg.ReplyMarkup,
		}, true
	}
	return Payload{}, false
}

// ItemPayload turns a manifest entry into a payload with the given protection
func ItemPayload(item models.FileItem, protect bool) Payload {
	return Payload{
		Kind:           item.Kind,
		FileID:         item.FileID,
		Text:           item.Caption,
		ProtectContent: protect,
	}
}
