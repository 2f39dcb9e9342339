package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := NewMemoryLimiter(time.Hour)
	defer l.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4:/v1/auth/login", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "1.2.3.4:/v1/auth/login", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, now.Add(time.Minute), res.ResetAt)

	other, err := l.Allow(ctx, "5.6.7.8:/v1/auth/login", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "1.2.3.4:/v1/auth/login", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestMemoryLimiterEvictsExpiredWindows(t *testing.T) {
	l := NewMemoryLimiter(time.Hour)
	defer l.Close()

	now := time.Now()
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "a", 1, time.Second)
	_, _ = l.Allow(context.Background(), "b", 1, time.Hour)
	require.Equal(t, 2, l.Size())

	now = now.Add(2 * time.Second)
	l.evict()
	assert.Equal(t, 1, l.Size())
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	l := NewRedisLimiter(client)
	key := "test:" + uuid.New().String()

	first, err := l.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	_, err = l.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)

	third, err := l.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.True(t, third.ResetAt.After(time.Now()))
}
