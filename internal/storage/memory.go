package storage

import (
	"context"
	"sync"
)

const watchBuffer = 64

type MemoryStorage struct {
	mu       sync.RWMutex
	data     map[string]map[string]string
	watchers map[chan Change]struct{}
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data:     make(map[string]map[string]string),
		watchers: make(map[chan Change]struct{}),
	}
}

func (m *MemoryStorage) Get(_ context.Context, visitor, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[visitor][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStorage) Set(ctx context.Context, visitor, key, value string) error {
	m.mu.Lock()
	entries, ok := m.data[visitor]
	if !ok {
		entries = make(map[string]string)
		m.data[visitor] = entries
	}
	entries[key] = value
	m.mu.Unlock()

	m.broadcast(Change{Visitor: visitor, Key: key, Origin: OriginFrom(ctx)})
	return nil
}

func (m *MemoryStorage) Remove(ctx context.Context, visitor string, keys ...string) error {
	var removed []string
	m.mu.Lock()
	if entries, ok := m.data[visitor]; ok {
		for _, k := range keys {
			if _, ok := entries[k]; ok {
				delete(entries, k)
				removed = append(removed, k)
			}
		}
		if len(entries) == 0 {
			delete(m.data, visitor)
		}
	}
	m.mu.Unlock()

	origin := OriginFrom(ctx)
	for _, k := range removed {
		m.broadcast(Change{Visitor: visitor, Key: k, Origin: origin, Removed: true})
	}
	return nil
}

func (m *MemoryStorage) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, watchBuffer)

	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		if _, ok := m.watchers[ch]; ok {
			delete(m.watchers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}()

	return ch, nil
}

// broadcast never blocks a writer; a watcher that falls behind loses changes.
func (m *MemoryStorage) broadcast(c Change) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for ch := range m.watchers {
		select {
		case ch <- c:
		default:
		}
	}
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ch := range m.watchers {
		delete(m.watchers, ch)
		close(ch)
	}
	return nil
}
