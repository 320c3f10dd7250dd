package models

import "time"

// BotUser is a private-chat user the bot has seen
type BotUser struct {
	ID         int64     `gorm:"primaryKey;autoIncrement:false"`
	Username   string    `gorm:"size:255"`
	FirstName  string    `gorm:"size:255"`
	LastName   string    `gorm:"size:255"`
	JoinDate   time.Time `gorm:"not null"`
	LastActive time.Time `gorm:"index;not null"`
	IsBanned   bool      `gorm:"default:false;index"`
}
