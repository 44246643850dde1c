package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/rogerio-castellano/storefront/internal/apiclient"
	"github.com/rogerio-castellano/storefront/internal/auth"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/rogerio-castellano/storefront/internal/views"
	"golang.org/x/sync/errgroup"
)

// Bootstrap brings a view up to date: it reveals the static sections, loads
// the featured products and resolves the session, then hides the global
// loader. The three flows run concurrently and do not depend on each other.
func (s *Service) Bootstrap(ctx context.Context, v *View) {
	var g errgroup.Group
	g.Go(func() error {
		s.revealStatic(v)
		return nil
	})
	g.Go(func() error {
		s.LoadFeatured(ctx, v)
		return nil
	})
	g.Go(func() error {
		s.resolveSession(ctx, v)
		return nil
	})
	g.Wait()

	s.hideLoader(v)
}

func (s *Service) revealStatic(v *View) {
	reveal := func(sections ...string) {
		if v.ctx.Err() != nil {
			return
		}
		for _, name := range sections {
			html, err := s.render.Section(name, true)
			s.patch(v, name, html, err)
		}
	}

	reveal(views.SectionNav, views.SectionMobileNav)
	s.clock.AfterFunc(s.cfg.Reveal.Hero, func() { reveal(views.SectionHero) })
	s.clock.AfterFunc(s.cfg.Reveal.Categories, func() { reveal(views.SectionCategories) })
	s.clock.AfterFunc(s.cfg.Reveal.Newsletter, func() { reveal(views.SectionNewsletter) })
}

func (s *Service) hideLoader(v *View) {
	s.clock.AfterFunc(s.cfg.Reveal.Loader, func() {
		if v.ctx.Err() != nil {
			return
		}
		s.clock.AfterFunc(s.cfg.Reveal.LoaderFade, func() {
			html, err := s.render.GlobalLoader(views.LoaderHidden)
			s.patch(v, views.TargetGlobalLoader, html, err)
		})

		html, err := s.render.GlobalLoader(views.LoaderFading)
		s.patch(v, views.TargetGlobalLoader, html, err)
	})
}

// resolveSession renders the account area for whoever the stored session
// names. With no token nothing is requested from the backend.
func (s *Service) resolveSession(ctx context.Context, v *View) {
	token, err := s.store.Get(ctx, v.Visitor, storage.KeyAccessToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Error("failed to read session", "view", v.ID, "visitor", v.Visitor, "error", err)
	}
	if token == "" {
		s.unsubscribe(v)
		s.renderGuest(v)
		return
	}

	user, err := s.currentUser(ctx, v, token)
	switch {
	case isUnauthorized(err):
		s.unsubscribe(v)
		s.renderGuest(v)
		return
	case err != nil:
		slog.Error("failed to fetch user", "view", v.ID, "visitor", v.Visitor, "error", err)
		return
	}

	v.setUser(&user)
	s.renderUser(v, &user)
	s.subscribe(v)
	s.RefreshCartCount(ctx, v)
}

// currentUser prefers the cached user record and only asks the backend when
// none is stored.
func (s *Service) currentUser(ctx context.Context, v *View, token string) (models.User, error) {
	cached, err := s.store.Get(ctx, v.Visitor, storage.KeyUser)
	if err == nil && cached != "" {
		var u models.User
		if err := json.Unmarshal([]byte(cached), &u); err == nil {
			if u.Key() == "" {
				if info, err := auth.Inspect(token); err == nil {
					u.ID = models.ID(info.Subject)
				}
			}
			return u, nil
		}
		slog.Warn("discarding unreadable cached user", "visitor", v.Visitor)
	}

	u, err := s.api.Me(ctx, v.Visitor)
	if err != nil {
		return models.User{}, err
	}
	if payload, err := json.Marshal(u); err == nil {
		if err := s.store.Set(ctx, v.Visitor, storage.KeyUser, string(payload)); err != nil {
			slog.Error("failed to cache user", "visitor", v.Visitor, "error", err)
		}
	}
	return u, nil
}

func (s *Service) renderUser(v *View, u *models.User) {
	html, err := s.render.UserSection(v.ID, u)
	s.patch(v, views.TargetUserSection, html, err)
	html, err = s.render.MobileUserSection(v.ID, u)
	s.patch(v, views.TargetMobileUserSection, html, err)
}

func (s *Service) renderGuest(v *View) {
	v.setUser(nil)
	s.renderUser(v, nil)
}

// RefreshCartCount fetches the cart summary for the view's user and updates
// the badge.
func (s *Service) RefreshCartCount(ctx context.Context, v *View) {
	u := v.User()
	if u == nil {
		return
	}

	summary, err := s.api.Cart(ctx, v.Visitor, u.Key())
	switch {
	case err == nil:
		v.send(views.TargetCartBadge, s.render.CartBadge(summary))
	case isUnauthorized(err):
	case apiclient.IsTransport(err):
		slog.Error("failed to fetch cart", "view", v.ID, "error", err)
		s.Notify(v, msgNetwork, views.ToastError)
	default:
		slog.Error("cart request rejected", "view", v.ID, "error", err)
	}
}
