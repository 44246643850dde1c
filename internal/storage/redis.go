package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const changesChannel = "storefront:storage:changes"

// RedisStorage keeps one hash per visitor and announces writes over pub/sub so
// every storefront instance sharing the redis sees them.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStorage) Get(ctx context.Context, visitor, key string) (string, error) {
	v, err := r.client.HGet(ctx, visitorKey(visitor), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis hget failed: %w", err)
	}
	return v, nil
}

func (r *RedisStorage) Set(ctx context.Context, visitor, key, value string) error {
	hash := visitorKey(visitor)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key, value)
		if r.ttl > 0 {
			pipe.Expire(ctx, hash, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}

	return r.publish(ctx, Change{Visitor: visitor, Key: key, Origin: OriginFrom(ctx)})
}

func (r *RedisStorage) Remove(ctx context.Context, visitor string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, visitorKey(visitor), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}

	origin := OriginFrom(ctx)
	for _, k := range keys {
		if err := r.publish(ctx, Change{Visitor: visitor, Key: k, Origin: origin, Removed: true}); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisStorage) publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change failed: %w", err)
	}
	if err := r.client.Publish(ctx, changesChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Watch(ctx context.Context) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, changesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	out := make(chan Change, watchBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					slog.Warn("skipping malformed storage change", "error", err)
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func visitorKey(visitor string) string {
	return fmt.Sprintf("storefront:storage:%s", visitor)
}
