package push

import (
	"log/slog"
	"sync"

	"github.com/rogerio-castellano/storefront/internal/models"
)

const subscriptionBuffer = 16

// Handler receives events for one subscription, one at a time.
type Handler func(models.Event)

// Hub fans events out to per-view subscriptions.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscription

	connected  bool
	reconnects int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

type Subscription struct {
	id     string
	hub    *Hub
	events chan models.Event
	done   chan struct{}
	once   sync.Once
}

// Subscribe registers fn under id, replacing any earlier subscription with the
// same id. Every subscription runs its handler on its own goroutine.
func (h *Hub) Subscribe(id string, fn Handler) *Subscription {
	sub := &Subscription{
		id:     id,
		hub:    h,
		events: make(chan models.Event, subscriptionBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	old := h.subs[id]
	h.subs[id] = sub
	h.mu.Unlock()
	if old != nil {
		old.stop()
	}

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case ev := <-sub.events:
				fn(ev)
			}
		}
	}()

	return sub
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	if s.hub.subs[s.id] == s {
		delete(s.hub.subs, s.id)
	}
	s.hub.mu.Unlock()
	s.stop()
}

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Publish hands ev to every subscription without blocking on slow ones.
func (h *Hub) Publish(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			slog.Warn("dropping push event for slow subscriber", "view", id, "event", ev.Event)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) setConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connected && !connected {
		h.reconnects++
	}
	h.connected = connected
}

// Stats reports the upstream connection state as seen by the listener.
type Stats struct {
	Subscribers int  `json:"subscribers"`
	Connected   bool `json:"connected"`
	Reconnects  int  `json:"reconnects"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{Subscribers: len(h.subs), Connected: h.connected, Reconnects: h.reconnects}
}
