package rate_limiter

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestAllow_PerClientBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(1, 2, clock)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "clients do not share a bucket")

	clock.Advance(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestCleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(1, 1, clock)
	l.Allow("a")
	clock.Advance(3 * time.Minute)
	l.Allow("b")
	clock.Advance(3 * time.Minute)

	l.Cleanup(5 * time.Minute)
	assert.Equal(t, 1, l.Len())
}
