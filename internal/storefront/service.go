package storefront

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rogerio-castellano/storefront/internal/apiclient"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/preloader"
	"github.com/rogerio-castellano/storefront/internal/push"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/rogerio-castellano/storefront/internal/views"
)

// API is the part of the backend the storefront calls.
type API interface {
	Me(ctx context.Context, visitor string) (models.User, error)
	FeaturedProducts(ctx context.Context) ([]models.Product, error)
	FeaturedProduct(ctx context.Context, id string) (models.Product, error)
	Cart(ctx context.Context, visitor, userID string) (models.CartSummary, error)
	AddToCart(ctx context.Context, visitor, userID, productID string, quantity int) error
}

type Reveal struct {
	Hero       time.Duration
	Categories time.Duration
	Newsletter time.Duration
	// Loader is how long after bootstrap the global loader starts fading.
	Loader     time.Duration
	LoaderFade time.Duration
}

type Config struct {
	LoginURL      string
	ToastDuration time.Duration
	OutboxSize    int
	// AttachTimeout closes views whose tab never opens its stream, or whose
	// dropped stream does not come back in time.
	AttachTimeout time.Duration
	Reveal        Reveal
	Preloader     preloader.Config
}

func DefaultConfig() Config {
	return Config{
		LoginURL:      "/auth/login",
		ToastDuration: 3 * time.Second,
		OutboxSize:    256,
		AttachTimeout: time.Minute,
		Reveal: Reveal{
			Hero:       800 * time.Millisecond,
			Categories: 1000 * time.Millisecond,
			Newsletter: 1200 * time.Millisecond,
			Loader:     500 * time.Millisecond,
			LoaderFade: 300 * time.Millisecond,
		},
		Preloader: preloader.DefaultConfig(),
	}
}

// Service drives every open view: it calls the backend on the visitor's
// behalf and pushes the resulting fragments to the view's outbox.
type Service struct {
	api    API
	store  storage.Storage
	hub    *push.Hub
	render *views.Renderer
	clock  clockwork.Clock
	cfg    Config
	reg    *registry
}

func NewService(api API, store storage.Storage, hub *push.Hub, render *views.Renderer, clock clockwork.Clock, cfg Config) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = DefaultConfig().LoginURL
	}
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = DefaultConfig().ToastDuration
	}
	if cfg.AttachTimeout <= 0 {
		cfg.AttachTimeout = DefaultConfig().AttachTimeout
	}
	return &Service{
		api:    api,
		store:  store,
		hub:    hub,
		render: render,
		clock:  clock,
		cfg:    cfg,
		reg:    newRegistry(),
	}
}

func (s *Service) Renderer() *views.Renderer {
	return s.render
}

// OpenView registers a new tab for visitor. The view lives until CloseView.
func (s *Service) OpenView(visitor string) *View {
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		ID:        uuid.NewString(),
		Visitor:   visitor,
		CreatedAt: s.clock.Now(),
		out:       NewOutbox(s.cfg.OutboxSize),
		stock:     make(map[int]views.StockBadge),
	}
	v.ctx = storage.WithOrigin(ctx, v.ID)
	v.cancel = cancel
	v.pre = preloader.New(surface{v: v, render: s.render}, s.clock, s.cfg.Preloader)

	s.reg.add(v)
	s.clock.AfterFunc(s.cfg.AttachTimeout, func() {
		if !v.everAttached() {
			slog.Debug("view never attached, closing", "view", v.ID)
			s.CloseView(v.ID)
		}
	})
	slog.Debug("view opened", "view", v.ID, "visitor", visitor)
	return v
}

// Detach records that v's stream went away. Frames keep queueing in the
// outbox; the view closes unless a stream attaches within AttachTimeout.
func (s *Service) Detach(v *View) {
	gen := v.detach()
	s.clock.AfterFunc(s.cfg.AttachTimeout, func() {
		if v.detachedSince(gen) {
			slog.Debug("view stream did not return, closing", "view", v.ID)
			s.CloseView(v.ID)
		}
	})
}

func (s *Service) View(id string) (*View, error) {
	return s.reg.get(id)
}

// CloseView tears a tab down: its push subscription, timers and outbox.
func (s *Service) CloseView(id string) error {
	v, ok := s.reg.remove(id)
	if !ok {
		return ErrViewNotFound
	}
	if sub := v.swapSubscription(nil); sub != nil {
		sub.Close()
	}
	v.pre.Stop()
	v.cancel()
	v.out.Close()
	slog.Debug("view closed", "view", v.ID, "visitor", v.Visitor, "age", s.clock.Since(v.CreatedAt))
	return nil
}

// Close ends every open view.
func (s *Service) Close() {
	for _, v := range s.reg.all() {
		s.CloseView(v.ID)
	}
}

func (s *Service) patch(v *View, target, html string, err error) {
	if err != nil {
		slog.Error("render failed", "view", v.ID, "target", target, "error", err)
		return
	}
	v.send(target, html)
}

// Notify shows a toast in the view and clears it after the toast duration,
// unless a newer toast has replaced it by then.
func (s *Service) Notify(v *View, message string, kind views.ToastKind) {
	id := v.nextToastID()
	html, err := s.render.Toast(views.Toast{ID: id, Message: message, Kind: kind})
	s.patch(v, views.TargetToast, html, err)

	s.clock.AfterFunc(s.cfg.ToastDuration, func() {
		if v.ctx.Err() == nil && v.isLastToast(id) {
			v.send(views.TargetToast, "")
		}
	})
}

func (s *Service) redirect(v *View, url string) {
	html, err := s.render.Redirect(url)
	s.patch(v, views.TargetNavigate, html, err)
}

func (s *Service) reload(v *View) {
	html, err := s.render.Reload()
	s.patch(v, views.TargetNavigate, html, err)
}

// Stats describes the live views for the ops endpoint.
type Stats struct {
	Views     int `json:"views"`
	Connected int `json:"connected"`
	LoggedIn  int `json:"logged_in"`
	Dropped   int `json:"dropped_frames"`
}

func (s *Service) Stats() Stats {
	var st Stats
	for _, v := range s.reg.all() {
		st.Views++
		if v.Connected() {
			st.Connected++
		}
		if v.User() != nil {
			st.LoggedIn++
		}
		st.Dropped += v.out.Dropped()
	}
	return st
}

func isUnauthorized(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized)
}
