package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"tg-filedrop/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedSessionStore(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("TEST_REDIS_HOST not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, config.RedisConfig{Host: os.Getenv("TEST_REDIS_HOST"), Port: 6379, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	repo := NewSessionRepository(newTestDB(t))
	store := NewCachedSessionStore(repo, client, time.Minute)
	t.Cleanup(func() { client.Del(ctx, cacheKey("cached1")) })

	require.NoError(t, store.Create(ctx, sampleSession("cached1")))

	cached, err := client.Exists(ctx, cacheKey("cached1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached)

	got, err := store.Get(ctx, "cached1")
	require.NoError(t, err)
	assert.Len(t, got.Items(), 2)

	_, err = store.Get(ctx, "cached1")
	require.NoError(t, err)

	stored, err := repo.Find(ctx, "cached1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.AccessCount)

	_, err = store.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
