package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg-filedrop/internal/models"

	"gorm.io/gorm"
)

// SessionStore is the durable keyed storage of upload sessions
type SessionStore interface {
	// Create persists a new session or returns ErrDuplicateSessionID
	Create(ctx context.Context, session *models.UploadSession) error
	// Get returns the session and bumps its access counter, or ErrSessionNotFound
	Get(ctx context.Context, sessionID string) (*models.UploadSession, error)
}

// SessionRepository handles database operations for UploadSession
type SessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// MigrateTable ensures the UploadSession table exists
func (r *SessionRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.UploadSession{})
}

// Create inserts session. The unique index on session_id is the only
// collision guard, so two concurrent creates with one id cannot both win.
func (r *SessionRepository) Create(ctx context.Context, session *models.UploadSession) error {
	if len(session.FileIDs) != len(session.Captions) || len(session.FileIDs) != len(session.FileKinds) {
		return fmt.Errorf("session %s: file, kind and caption lists differ in length", session.SessionID)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now()
	}
	session.FileCount = len(session.FileIDs)

	err := r.db.WithContext(ctx).Create(session).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSessionID
	}
	if err != nil {
		return persistenceError("create upload session", err)
	}
	return nil
}

// Find loads a session without touching its access counter
func (r *SessionRepository) Find(ctx context.Context, sessionID string) (*models.UploadSession, error) {
	var session models.UploadSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, persistenceError("find upload session", err)
	}
	return &session, nil
}

// IncrementAccess bumps the counter in place. It is a single UPDATE with no
// surrounding transaction; concurrent readers never block each other.
func (r *SessionRepository) IncrementAccess(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.UploadSession{}).
		Where("session_id = ?", sessionID).
		UpdateColumn("access_count", gorm.Expr("access_count + ?", 1)).Error
	if err != nil {
		return persistenceError("increment access count", err)
	}
	return nil
}

// Get returns the manifest and increments its access counter. A failed
// increment is tolerated: the count is best-effort.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.UploadSession, error) {
	session, err := r.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := r.IncrementAccess(ctx, sessionID); err == nil {
		session.AccessCount++
	}
	return session, nil
}

// Count returns the number of stored sessions
func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UploadSession{}).Count(&count).Error
	return count, err
}

// TotalFiles sums the manifest sizes of every session
func (r *SessionRepository) TotalFiles(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.UploadSession{}).
		Select("COALESCE(SUM(file_count), 0)").
		Scan(&total).Error
	return total, err
}
