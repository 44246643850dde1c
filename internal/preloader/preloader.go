// Package preloader decides when the full-page loading overlay goes away.
//
// The overlay is injected when the document is parsed and removed once the
// page has settled: a short delay after the window load event, as soon as every
// image has loaded or failed after load, or at the latest when the ceiling
// timer fires. Removal happens once, in two steps: a fade, then a detach.
package preloader

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Surface is where the overlay lives.
type Surface interface {
	Inject()
	FadeOut()
	// Hide stops the faded overlay from intercepting input.
	Hide()
	Detach()
}

type Config struct {
	Settle      time.Duration
	Ceiling     time.Duration
	FadeOut     time.Duration
	DetachDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Settle:      500 * time.Millisecond,
		Ceiling:     4 * time.Second,
		FadeOut:     600 * time.Millisecond,
		DetachDelay: 100 * time.Millisecond,
	}
}

type Controller struct {
	surface Surface
	clock   clockwork.Clock
	cfg     Config

	mu       sync.Mutex
	injected bool
	complete bool
	images   int
	settled  int
	removing bool
	removed  bool
	timers   []clockwork.Timer
}

func New(surface Surface, clock clockwork.Clock, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.Settle <= 0 {
		cfg.Settle = def.Settle
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = def.Ceiling
	}
	if cfg.FadeOut <= 0 {
		cfg.FadeOut = def.FadeOut
	}
	if cfg.DetachDelay <= 0 {
		cfg.DetachDelay = def.DetachDelay
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{surface: surface, clock: clock, cfg: cfg}
}

// DOMReady injects the overlay, starts the ceiling timer and records how many
// images the page is waiting on. Later calls are ignored.
func (c *Controller) DOMReady(images int) {
	c.mu.Lock()
	if c.injected || c.removing {
		c.mu.Unlock()
		return
	}
	c.injected = true
	if images > 0 {
		c.images = images
	}
	c.timers = append(c.timers, c.clock.AfterFunc(c.cfg.Ceiling, c.Remove))
	c.mu.Unlock()

	c.surface.Inject()
}

// WindowLoad marks the document complete and schedules removal after the
// settle delay.
func (c *Controller) WindowLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.complete || c.removing {
		return
	}
	c.complete = true
	c.timers = append(c.timers, c.clock.AfterFunc(c.cfg.Settle, c.Remove))
}

// ImageSettled counts one image as loaded or failed.
func (c *Controller) ImageSettled() {
	c.mu.Lock()
	if c.removing || c.images == 0 {
		c.mu.Unlock()
		return
	}
	c.settled++
	ready := c.settled == c.images && c.complete
	c.mu.Unlock()

	if ready {
		c.Remove()
	}
}

// Remove fades the overlay out and detaches it. Only the first call acts.
func (c *Controller) Remove() {
	c.mu.Lock()
	if c.removing || !c.injected {
		c.mu.Unlock()
		return
	}
	c.removing = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.mu.Unlock()

	// Arm the next step before touching the surface.
	c.clock.AfterFunc(c.cfg.FadeOut, func() {
		c.clock.AfterFunc(c.cfg.DetachDelay, func() {
			c.mu.Lock()
			c.removed = true
			c.mu.Unlock()
			c.surface.Detach()
		})
		c.surface.Hide()
	})
	c.surface.FadeOut()
}

// Removed reports whether the overlay has been detached.
func (c *Controller) Removed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removed
}

// Stop cancels pending timers without touching the surface.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removing = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}
