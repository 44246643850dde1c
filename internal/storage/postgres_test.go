package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	s := NewPostgresStorage(db, dsn)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))

	changes, err := s.Watch(ctx)
	require.NoError(t, err)

	visitor := uuid.NewString()
	defer s.Remove(context.Background(), visitor, SessionKeys...)

	require.NoError(t, s.Set(WithOrigin(ctx, "view-a"), visitor, KeyAccessToken, "tok"))
	got, err := s.Get(ctx, visitor, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Set(ctx, visitor, KeyAccessToken, "tok2"))
	got, err = s.Get(ctx, visitor, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok2", got)

	select {
	case c := <-changes:
		assert.Equal(t, visitor, c.Visitor)
		assert.Equal(t, "view-a", c.Origin)
	case <-ctx.Done():
		t.Fatal("expected a notification")
	}

	require.NoError(t, s.Remove(ctx, visitor, KeyAccessToken))
	_, err = s.Get(ctx, visitor, KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
