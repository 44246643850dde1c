package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rogerio-castellano/storefront/internal/apiclient"
	"github.com/rogerio-castellano/storefront/internal/apiclient/apitest"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource answers each EventStream call with the next scripted body,
// or an error when the entry is empty.
type scriptedSource struct {
	mu     sync.Mutex
	bodies []string
	calls  int
}

func (s *scriptedSource) EventStream(context.Context) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.bodies) == 0 {
		return nil, errors.New("connection refused")
	}
	body := s.bodies[0]
	s.bodies = s.bodies[1:]
	if body == "" {
		return nil, errors.New("connection refused")
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
}

func recordSleeps(l *Listener) *[]time.Duration {
	var waits []time.Duration
	l.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestListener_RetryBound(t *testing.T) {
	hub := NewHub()
	l := NewListener(&scriptedSource{}, hub, Config{ReconnectInitial: 3 * time.Second, Multiplier: 2, MaxInterval: time.Minute, MaxRetries: 3})
	waits := recordSleeps(l)

	err := l.Run(context.Background())
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second, 12 * time.Second}, *waits)
}

func TestListener_DefaultDelayIsFixed(t *testing.T) {
	hub := NewHub()
	l := NewListener(&scriptedSource{}, hub, Config{ReconnectInitial: 3 * time.Second, MaxInterval: time.Minute, MaxRetries: 4})
	waits := recordSleeps(l)

	err := l.Run(context.Background())
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second}, *waits)
}

func TestListener_BackoffCapsAndResets(t *testing.T) {
	src := &scriptedSource{bodies: []string{"", "", "", ": connected\n\n", ""}}
	hub := NewHub()
	l := NewListener(src, hub, Config{ReconnectInitial: 3 * time.Second, Multiplier: 2, MaxInterval: 10 * time.Second, MaxRetries: 5})
	waits := recordSleeps(l)

	err := l.Run(context.Background())
	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.GreaterOrEqual(t, len(*waits), 5)
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second, 10 * time.Second, 3 * time.Second, 6 * time.Second}, (*waits)[:5])
	assert.Equal(t, 1, hub.Stats().Reconnects)
}

func TestListener_DispatchesAndSkipsMalformed(t *testing.T) {
	body := strings.Join([]string{
		": connected",
		"",
		"data: not json",
		"",
		`data: {"event":"cart_updated","data":{"user_id":"u1"}}`,
		"",
		`data: {"event":"product_updated",`,
		`data: "data":{}}`,
		"",
	}, "\n")
	src := &scriptedSource{bodies: []string{body}}
	hub := NewHub()

	var mu sync.Mutex
	var got []string
	sub := hub.Subscribe("view-1", func(ev models.Event) {
		mu.Lock()
		got = append(got, ev.Event)
		mu.Unlock()
	})
	defer sub.Close()

	l := NewListener(src, hub, Config{MaxRetries: 1})
	recordSleeps(l)
	require.ErrorIs(t, l.Run(context.Background()), ErrRetriesExhausted)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{models.EventCartUpdated, models.EventProductUpdated}, got)
}

func TestListener_AgainstBackend(t *testing.T) {
	api := apitest.NewServer(t)
	client := apiclient.New(apiclient.Options{BaseURL: api.URL}, storage.NewMemoryStorage())
	hub := NewHub()

	events := make(chan models.Event, 4)
	sub := hub.Subscribe("view-1", func(ev models.Event) { events <- ev })
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewListener(client, hub, Config{ReconnectInitial: 10 * time.Millisecond}).Run(ctx) }()

	require.Eventually(t, func() bool { return hub.Stats().Connected }, 2*time.Second, 10*time.Millisecond)

	api.PublishEvent(models.Event{Event: models.EventProductUpdated})
	select {
	case ev := <-events:
		assert.Equal(t, models.EventProductUpdated, ev.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an event")
	}

	api.DropStreams()
	require.Eventually(t, func() bool { return hub.Stats().Reconnects == 1 && api.Streams() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
