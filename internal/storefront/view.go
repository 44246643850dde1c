package storefront

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/preloader"
	"github.com/rogerio-castellano/storefront/internal/push"
	"github.com/rogerio-castellano/storefront/internal/views"
)

// View is the state of one open browser tab.
type View struct {
	ID        string
	Visitor   string
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	out    *Outbox
	pre    *preloader.Controller

	mu        sync.Mutex
	user      *models.User
	products  []models.Product
	slide     int
	stock     map[int]views.StockBadge
	modal     *views.Modal
	sub       *push.Subscription
	toastSeq  int
	lastToast string
	connected bool
	attached  bool
	// streams counts attach and detach transitions.
	streams uint64
}

func (v *View) Outbox() *Outbox {
	return v.out
}

func (v *View) Preloader() *preloader.Controller {
	return v.pre
}

// Context ends when the view is closed.
func (v *View) Context() context.Context {
	return v.ctx
}

func (v *View) send(event, data string) {
	v.out.Push(Frame{Event: event, Data: data})
}

func (v *View) User() *models.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.user == nil {
		return nil
	}
	u := *v.user
	return &u
}

func (v *View) setUser(u *models.User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.user = u
}

func (v *View) Slide() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.slide
}

// carousel snapshots the featured list. Call with v.mu held.
func (v *View) carousel() views.Carousel {
	stock := make(map[int]views.StockBadge, len(v.stock))
	for i, b := range v.stock {
		stock[i] = b
	}
	return views.Carousel{
		ViewID:   v.ID,
		Products: append([]models.Product(nil), v.products...),
		Active:   v.slide,
		Stock:    stock,
	}
}

// swapSubscription installs sub and returns the one it replaces.
func (v *View) swapSubscription(sub *push.Subscription) *push.Subscription {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.sub
	v.sub = sub
	return old
}

func (v *View) nextToastID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.toastSeq++
	v.lastToast = v.ID + "-" + strconv.Itoa(v.toastSeq)
	return v.lastToast
}

func (v *View) isLastToast(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastToast == id
}

// surface adapts the view's preloader slot to preloader.Surface.
type surface struct {
	v      *View
	render *views.Renderer
}

func (s surface) state(state views.PreloaderState) {
	html, err := s.render.Preloader(state)
	if err != nil {
		return
	}
	s.v.send(views.TargetPreloader, html)
}

func (s surface) Inject()  { s.state(views.PreloaderInjected) }
func (s surface) FadeOut() { s.state(views.PreloaderFading) }
func (s surface) Hide()    { s.state(views.PreloaderHidden) }
func (s surface) Detach()  { s.state(views.PreloaderDetached) }

// Attach marks the tab's stream as connected. Only one stream may be attached
// at a time; a stream that dropped may attach again.
func (v *View) Attach() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.connected {
		return false
	}
	v.connected = true
	v.attached = true
	v.streams++
	return true
}

func (v *View) detach() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = false
	v.streams++
	return v.streams
}

// detachedSince reports whether no stream has attached since the detach that
// returned gen.
func (v *View) detachedSince(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.connected && v.streams == gen
}

func (v *View) everAttached() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attached
}

func (v *View) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}
