package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_GetSetRemove(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_, err := s.Get(ctx, "v1", KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "v1", KeyAccessToken, "tok"))
	got, err := s.Get(ctx, "v1", KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	_, err = s.Get(ctx, "v2", KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound, "visitors must not share entries")

	require.NoError(t, s.Remove(ctx, "v1", SessionKeys...))
	_, err = s.Get(ctx, "v1", KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_Watch(t *testing.T) {
	s := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := s.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Set(WithOrigin(ctx, "view-a"), "v1", KeyUser, `{"id":1}`))
	select {
	case c := <-changes:
		assert.Equal(t, Change{Visitor: "v1", Key: KeyUser, Origin: "view-a"}, c)
		assert.True(t, c.SessionChange())
	case <-time.After(time.Second):
		t.Fatal("expected a change")
	}

	require.NoError(t, s.Remove(ctx, "v1", KeyUser, KeyRefreshToken))
	select {
	case c := <-changes:
		assert.Equal(t, Change{Visitor: "v1", Key: KeyUser, Removed: true}, c)
	case <-time.After(time.Second):
		t.Fatal("expected a removal")
	}
	select {
	case c := <-changes:
		t.Fatalf("absent key should not be announced, got %+v", c)
	default:
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-changes
		return !ok
	}, time.Second, 10*time.Millisecond)
}
