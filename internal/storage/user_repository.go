package storage

import (
	"time"

	"tg-filedrop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for BotUser
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert records a user seen at time at. JoinDate is written only on the
// first insert; profile fields and LastActive are refreshed every time.
func (r *UserRepository) Upsert(user *models.BotUser, at time.Time) error {
	user.LastActive = at
	if user.JoinDate.IsZero() {
		user.JoinDate = at
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "last_active"}),
	}).Create(user).Error
}

// Get returns the user or nil when unknown
func (r *UserRepository) Get(userID int64) (*models.BotUser, error) {
	var user models.BotUser
	result := r.db.Limit(1).Find(&user, userID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &user, nil
}

// SetBanned toggles whether the user receives broadcasts
func (r *UserRepository) SetBanned(userID int64, banned bool) error {
	return r.db.Model(&models.BotUser{}).Where("id = ?", userID).Update("is_banned", banned).Error
}

// ListRecipients returns the ids of every non-banned user in join order
func (r *UserRepository) ListRecipients() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&models.BotUser{}).
		Where("is_banned = ?", false).
		Order("join_date ASC, id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Count returns the number of known users
func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.BotUser{}).Count(&count).Error
	return count, err
}

// CountActiveSince returns how many users were active at or after since
func (r *UserRepository) CountActiveSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.BotUser{}).Where("last_active >= ?", since).Count(&count).Error
	return count, err
}
