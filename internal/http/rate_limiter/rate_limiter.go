package rate_limiter

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client key.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	clock    clockwork.Clock
}

func New(perSecond float64, burst int, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{
		visitors: make(map[string]*clientLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		clock:    clock,
	}
}

func (l *Limiter) GetVisitor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(l.limit, l.burst)
		l.visitors[key] = &clientLimiter{limiter, l.clock.Now()}
		return limiter
	}

	v.lastSeen = l.clock.Now()
	return v.limiter
}

// Allow reports whether key may make a request now.
func (l *Limiter) Allow(key string) bool {
	return l.GetVisitor(key).AllowN(l.clock.Now(), 1)
}

// Cleanup forgets clients idle for longer than maxIdle.
func (l *Limiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if l.clock.Since(v.lastSeen) > maxIdle {
			delete(l.visitors, key)
		}
	}
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// StartVisitorCleanupLoop runs Cleanup every minute until ctx is done.
func (l *Limiter) StartVisitorCleanupLoop(ctx context.Context) {
	ticker := l.clock.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.Cleanup(5 * time.Minute)
		}
	}
}
