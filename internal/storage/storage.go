package storage

import (
	"context"
	"errors"
)

// Keys written by the session hand-off and cleared on logout or on a 401.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// SessionKeys lists every key that belongs to an authenticated session.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

var ErrNotFound = errors.New("key not found")

// Storage is a visitor-scoped key/value store. Every write is announced on the
// change feed returned by Watch, tagged with the origin found in the context.
type Storage interface {
	Get(ctx context.Context, visitor, key string) (string, error)
	Set(ctx context.Context, visitor, key, value string) error
	Remove(ctx context.Context, visitor string, keys ...string) error
	Watch(ctx context.Context) (<-chan Change, error)
	Close() error
}

// Change describes one key written or removed for a visitor. Origin names the
// view that caused it, empty when the write came from outside any view.
type Change struct {
	Visitor string `json:"visitor"`
	Key     string `json:"key"`
	Origin  string `json:"origin,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// SessionChange reports whether c touches the keys that define who is logged in.
func (c Change) SessionChange() bool {
	return c.Key == KeyAccessToken || c.Key == KeyUser
}

type originKey struct{}

func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

func OriginFrom(ctx context.Context) string {
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}
