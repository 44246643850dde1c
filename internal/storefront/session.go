package storefront

import (
	"context"
	"log/slog"

	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/rogerio-castellano/storefront/internal/views"
)

// subscribe attaches the view to the push hub for as long as it is logged in.
func (s *Service) subscribe(v *View) {
	if s.hub == nil {
		return
	}
	sub := s.hub.Subscribe(v.ID, func(ev models.Event) {
		s.HandleEvent(v.ctx, v, ev)
	})
	if old := v.swapSubscription(sub); old != nil && old != sub {
		old.Close()
	}
}

func (s *Service) unsubscribe(v *View) {
	if sub := v.swapSubscription(nil); sub != nil {
		sub.Close()
	}
}

// HandleEvent reacts to one backend push event. Cart updates for other users
// are ignored.
func (s *Service) HandleEvent(ctx context.Context, v *View, ev models.Event) {
	switch ev.Event {
	case models.EventCartUpdated:
		u := v.User()
		if u != nil && ev.CartUpdatedFor(u.Key()) {
			s.RefreshCartCount(ctx, v)
		}
	case models.EventProductUpdated:
		s.LoadFeatured(ctx, v)
	default:
		slog.Debug("ignoring push event", "view", v.ID, "event", ev.Event)
	}
}

// HandleUnauthorized runs after a backend 401 has cleared the visitor's
// session. The view that made the call, named by the context origin, is told
// and drops to guest state. The visitor's other views follow through the
// storage change feed.
func (s *Service) HandleUnauthorized(ctx context.Context, visitor string) {
	targets := s.reg.byVisitor(visitor)
	if origin := storage.OriginFrom(ctx); origin != "" {
		targets = nil
		if v, err := s.reg.get(origin); err == nil {
			targets = append(targets, v)
		}
	}

	for _, v := range targets {
		s.unsubscribe(v)
		s.renderGuest(v)
		s.Notify(v, msgSessionExpired, views.ToastError)
	}
}

// Logout clears the visitor's session and reloads the tab.
func (s *Service) Logout(ctx context.Context, v *View) error {
	if err := s.store.Remove(storage.WithOrigin(ctx, v.ID), v.Visitor, storage.SessionKeys...); err != nil {
		return err
	}
	s.unsubscribe(v)
	v.setUser(nil)
	s.reload(v)
	return nil
}

// WatchStorage re-bootstraps views when another view, or the login hand-off,
// changes who is logged in. It runs until ctx is done.
func (s *Service) WatchStorage(ctx context.Context) error {
	changes, err := s.store.Watch(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			if !c.SessionChange() {
				continue
			}
			for _, v := range s.reg.byVisitor(c.Visitor) {
				if v.ID == c.Origin {
					continue
				}
				slog.Debug("session changed elsewhere, re-initialising", "view", v.ID, "key", c.Key)
				go s.Bootstrap(v.ctx, v)
			}
		}
	}
}
