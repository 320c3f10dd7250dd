package storage

import (
	"context"
	"fmt"
	"time"

	"tg-filedrop/internal/models"
)

// ActiveWindow is how recently a user must have interacted to count as active
const ActiveWindow = 48 * time.Hour

// StatsRepository aggregates usage numbers across the user and session tables
type StatsRepository struct {
	users    *UserRepository
	sessions *SessionRepository
	now      func() time.Time
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(users *UserRepository, sessions *SessionRepository) *StatsRepository {
	return &StatsRepository{users: users, sessions: sessions, now: time.Now}
}

// Collect takes a statistics snapshot
func (r *StatsRepository) Collect(ctx context.Context) (*models.Statistics, error) {
	now := r.now()
	stats := &models.Statistics{GeneratedAt: now}

	var err error
	if stats.TotalUsers, err = r.users.Count(); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.ActiveUsers, err = r.users.CountActiveSince(now.Add(-ActiveWindow)); err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if stats.TotalSessions, err = r.sessions.Count(ctx); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if stats.TotalUploads, err = r.sessions.TotalFiles(ctx); err != nil {
		return nil, fmt.Errorf("count uploaded files: %w", err)
	}
	return stats, nil
}
