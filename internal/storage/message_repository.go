package storage

import (
	"errors"
	"time"

	"tg-filedrop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository handles database operations for the static bot messages
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// SeedDefaults inserts the default start and help texts when they are missing.
// Existing rows are left alone so owner edits survive a re-migration.
func (r *MessageRepository) SeedDefaults() error {
	defaults := []models.BotMessage{
		{MessageType: models.MessageTypeStart, Text: models.T("default_start"), UpdatedAt: time.Now()},
		{MessageType: models.MessageTypeHelp, Text: models.T("default_help"), UpdatedAt: time.Now()},
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
}

// Get returns the message of the given type, falling back to the built-in
// default when no row exists
func (r *MessageRepository) Get(messageType string) (*models.BotMessage, error) {
	var msg models.BotMessage
	err := r.db.Where("message_type = ?", messageType).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultMessage(messageType), nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetText replaces the text of a static message
func (r *MessageRepository) SetText(messageType, text string) error {
	return r.upsert(messageType, map[string]interface{}{"text": text})
}

// SetImage replaces the image of a static message
func (r *MessageRepository) SetImage(messageType, imageID string) error {
	return r.upsert(messageType, map[string]interface{}{"image_id": imageID})
}

func (r *MessageRepository) upsert(messageType string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.BotMessage
		err := tx.Where("message_type = ?", messageType).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			msg := defaultMessage(messageType)
			if text, ok := fields["text"].(string); ok {
				msg.Text = text
			}
			if imageID, ok := fields["image_id"].(string); ok {
				msg.ImageID = imageID
			}
			msg.UpdatedAt = fields["updated_at"].(time.Time)
			return tx.Create(msg).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(fields).Error
	})
}

func defaultMessage(messageType string) *models.BotMessage {
	msg := &models.BotMessage{MessageType: messageType}
	switch messageType {
	case models.MessageTypeHelp:
		msg.Text = models.T("default_help")
	default:
		msg.Text = models.T("default_start")
	}
	return msg
}
