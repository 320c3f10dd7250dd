package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tg-filedrop/internal/config"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"

	"github.com/redis/go-redis/v9"
)

const sessionCacheKeyFormat = "filedrop:session:%s"

// NewRedisClient connects to the configured redis server and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s:%d: %w", host, port, err)
	}
	return client, nil
}

// CachedSessionStore serves manifests from redis and falls through to the
// database on a miss. Manifests are immutable, so entries never need
// invalidation; the access counter always goes to the database.
type CachedSessionStore struct {
	repo   *SessionRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSessionStore wraps repo with a redis read-through cache
func NewCachedSessionStore(repo *SessionRepository, client *redis.Client, ttl time.Duration) *CachedSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedSessionStore{repo: repo, client: client, ttl: ttl}
}

// Create persists the session and warms the cache
func (s *CachedSessionStore) Create(ctx context.Context, session *models.UploadSession) error {
	if err := s.repo.Create(ctx, session); err != nil {
		return err
	}
	s.store(ctx, session)
	return nil
}

// Get returns the manifest and increments the access counter in the database.
// The AccessCount of a cached manifest is the value at caching time.
func (s *CachedSessionStore) Get(ctx context.Context, sessionID string) (*models.UploadSession, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		session, err = s.repo.Find(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		s.store(ctx, session)
	}

	if err := s.repo.IncrementAccess(ctx, sessionID); err != nil {
		logger.Warningf("Failed to increment access count for session %s: %v", sessionID, err)
	} else {
		session.AccessCount++
	}
	return session, nil
}

func (s *CachedSessionStore) load(ctx context.Context, sessionID string) (*models.UploadSession, error) {
	data, err := s.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warningf("Session cache read failed for %s: %v", sessionID, err)
		}
		return nil, err
	}

	var session models.UploadSession
	if err := json.Unmarshal(data, &session); err != nil {
		logger.Warningf("Dropping corrupt cache entry for session %s: %v", sessionID, err)
		s.client.Del(ctx, cacheKey(sessionID))
		return nil, err
	}
	return &session, nil
}

func (s *CachedSessionStore) store(ctx context.Context, session *models.UploadSession) {
	data, err := json.Marshal(session)
	if err != nil {
		logger.Warningf("Failed to encode session %s for cache: %v", session.SessionID, err)
		return
	}
	if err := s.client.Set(ctx, cacheKey(session.SessionID), data, s.ttl).Err(); err != nil {
		logger.Warningf("Session cache write failed for %s: %v", session.SessionID, err)
	}
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf(sessionCacheKeyFormat, sessionID)
}
