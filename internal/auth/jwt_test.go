package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestInspect(t *testing.T) {
	token, err := GenerateToken(testSecret, "user-1", "admin", time.Hour)
	require.NoError(t, err)

	info, err := Inspect("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", info.Subject)
	assert.Equal(t, "admin", info.Role)
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(time.Now().Add(2*time.Hour)))
}

func TestInspectIgnoresSignature(t *testing.T) {
	token, err := GenerateToken([]byte("someone-else"), "user-2", "", time.Hour)
	require.NoError(t, err)

	info, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", info.Subject)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := Inspect("")
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = Inspect("not-a-jwt")
	assert.Error(t, err)
}
