package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/sony/gobreaker/v2"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-ok answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// UnauthorizedFunc runs after a 401 has cleared the visitor's session.
type UnauthorizedFunc func(ctx context.Context, visitor string)

type Options struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	store   storage.Storage
	breaker *gobreaker.CircuitBreaker[*http.Response]

	mu             sync.RWMutex
	onUnauthorized UnauthorizedFunc
}

func New(opts Options, store storage.Storage) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "backend-api",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		stream:  &http.Client{},
		store:   store,
		breaker: breaker,
	}
}

// OnUnauthorized installs the hook DoAuth calls after a 401.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send counts only transport failures against the breaker; any HTTP answer
// proves the backend is reachable.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// Do issues an unauthenticated request.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

// DoAuth issues a request carrying the visitor's access token. A 401 clears
// the visitor's whole session before ErrUnauthorized is returned.
func (c *Client) DoAuth(ctx context.Context, visitor, method, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	token, err := c.store.Get(ctx, visitor, storage.KeyAccessToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.store.Remove(ctx, visitor, storage.SessionKeys...); err != nil {
			slog.Error("failed to clear session", "visitor", visitor, "error", err)
		}

		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook(ctx, visitor)
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}

	return resp, nil
}

// decodeError turns a non-ok response into an *APIError, preferring the
// backend's own "error" message over fallback.
func decodeError(resp *http.Response, fallback string) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := fallback
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func decodeJSON(resp *http.Response, data any) error {
	if err := json.NewDecoder(resp.Body).Decode(data); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Message returns the text a visitor should see for err, or fallback when err
// carries nothing better.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsTransport reports whether err means the backend could not be reached.
func IsTransport(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr)
}
