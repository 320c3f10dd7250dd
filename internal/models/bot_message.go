package models

import "time"

// Static message types editable by the owner
const (
	MessageTypeStart = "start_message"
	MessageTypeHelp  = "help_message"
)

// BotMessage is a configurable static message with an optional image
type BotMessage struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	MessageType string `gorm:"size:50;uniqueIndex;not null"`
	Text        string `gorm:"type:text"`
	ImageID     string `gorm:"size:500"`
	UpdatedAt   time.Time
}

// Statistics is a point-in-time snapshot of bot usage
type Statistics struct {
	TotalUsers    int64     `json:"total_users"`
	ActiveUsers   int64     `json:"active_users"`
	TotalSessions int64     `json:"total_sessions"`
	TotalUploads  int64     `json:"total_uploads"`
	GeneratedAt   time.Time `json:"generated_at"`
}
