package push

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rogerio-castellano/storefront/internal/models"
)

var ErrRetriesExhausted = errors.New("push: reconnect retries exhausted")

// Source opens the backend event stream.
type Source interface {
	EventStream(ctx context.Context) (*http.Response, error)
}

type Config struct {
	ReconnectInitial time.Duration
	Multiplier       float64
	MaxInterval      time.Duration
	// MaxRetries bounds consecutive failed connections; 0 retries forever.
	MaxRetries uint64
}

func (c Config) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.ReconnectInitial
	if b.InitialInterval <= 0 {
		b.InitialInterval = 3 * time.Second
	}
	// A multiplier of 1 keeps the delay fixed at InitialInterval.
	b.Multiplier = c.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.MaxInterval = c.MaxInterval
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	if c.MaxRetries > 0 {
		return backoff.WithMaxRetries(b, c.MaxRetries)
	}
	return b
}

// Listener holds the single upstream event stream and feeds the hub.
type Listener struct {
	src   Source
	hub   *Hub
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

func NewListener(src Source, hub *Hub, cfg Config) *Listener {
	return &Listener{src: src, hub: hub, cfg: cfg, sleep: sleepCtx}
}

// Run keeps the stream open until ctx is done or the retry bound is hit.
func (l *Listener) Run(ctx context.Context) error {
	b := l.cfg.backOff()

	for {
		connected, err := l.consume(ctx)
		l.hub.setConnected(false)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
		}
		slog.Warn("event stream lost, reconnecting", "error", err, "in", wait)
		if err := l.sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// consume reads one connection to its end. connected reports whether the
// stream was established at all.
func (l *Listener) consume(ctx context.Context) (connected bool, err error) {
	resp, err := l.src.EventStream(ctx)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	l.hub.setConnected(true)
	slog.Info("event stream connected")

	if err := l.read(resp.Body); err != nil {
		return true, err
	}
	return true, io.EOF
}

// read dispatches each SSE message. Multi-line data fields are joined with
// newlines; a blank line ends the message.
func (l *Listener) read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				l.dispatch(strings.Join(data, "\n"))
				data = data[:0]
			}
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if len(data) > 0 {
		l.dispatch(strings.Join(data, "\n"))
	}
	return scanner.Err()
}

func (l *Listener) dispatch(payload string) {
	var ev models.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Event == "" {
		slog.Warn("skipping malformed push message", "payload", payload, "error", err)
		return
	}
	l.hub.Publish(ev)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
