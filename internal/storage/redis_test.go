package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStorage(client, ttl)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStorage_GetSetRemove(t *testing.T) {
	s, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	_, err := s.Get(ctx, "v1", KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "v1", KeyAccessToken, "tok"))
	assert.Equal(t, "tok", mr.HGet(visitorKey("v1"), KeyAccessToken))
	assert.Equal(t, time.Hour, mr.TTL(visitorKey("v1")))

	got, err := s.Get(ctx, "v1", KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Remove(ctx, "v1", SessionKeys...))
	_, err = s.Get(ctx, "v1", KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_ExpiresVisitor(t *testing.T) {
	s, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "v1", KeyUser, "{}"))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "v1", KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_Watch(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := s.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Set(WithOrigin(ctx, "view-a"), "v1", KeyAccessToken, "tok"))
	select {
	case c := <-changes:
		assert.Equal(t, Change{Visitor: "v1", Key: KeyAccessToken, Origin: "view-a"}, c)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change")
	}
}

func TestRedisStorage_Unavailable(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Get(context.Background(), "v1", KeyUser)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
