package storefront

import (
	"context"
	"log/slog"

	"github.com/rogerio-castellano/storefront/internal/apiclient"
	"github.com/rogerio-castellano/storefront/internal/views"
)

// LoadFeatured fetches the featured list and renders the carousel. On failure
// the skeleton stays and a toast explains why.
func (s *Service) LoadFeatured(ctx context.Context, v *View) {
	products, err := s.api.FeaturedProducts(ctx)
	if err != nil {
		slog.Error("failed to load featured products", "view", v.ID, "error", err)
		if apiclient.IsTransport(err) {
			s.Notify(v, msgNetworkProducts, views.ToastError)
		} else {
			s.Notify(v, msgLoadProducts, views.ToastError)
		}
		return
	}

	v.mu.Lock()
	v.products = products
	v.slide = 0
	v.stock = make(map[int]views.StockBadge)
	c := v.carousel()
	v.mu.Unlock()

	html, err := s.render.Featured(c)
	s.patch(v, views.TargetFeatured, html, err)
}

// SelectSlide moves the carousel to index, clamped to the loaded products.
func (s *Service) SelectSlide(v *View, index int) {
	v.mu.Lock()
	if len(v.products) == 0 {
		v.mu.Unlock()
		return
	}
	v.slide = clamp(index, 0, len(v.products)-1)
	c := v.carousel()
	v.mu.Unlock()

	html, err := s.render.FeaturedTrack(c)
	s.patch(v, views.TargetFeaturedTrack, html, err)
	html, err = s.render.FeaturedIndicators(c)
	s.patch(v, views.TargetIndicators, html, err)
}

// OpenProduct shows a blocking spinner while the product loads, then the
// detail modal.
func (s *Service) OpenProduct(ctx context.Context, v *View, productID string) {
	html, err := s.render.Spinner()
	s.patch(v, views.TargetSpinner, html, err)

	p, err := s.api.FeaturedProduct(ctx, productID)
	v.send(views.TargetSpinner, "")
	if err != nil {
		slog.Error("failed to load product", "view", v.ID, "product", productID, "error", err)
		if apiclient.IsTransport(err) {
			s.Notify(v, msgNetworkProduct, views.ToastError)
		} else {
			s.Notify(v, msgProductDetails, views.ToastError)
		}
		return
	}

	m := views.Modal{ViewID: v.ID, Product: p}
	v.mu.Lock()
	v.modal = &m
	v.mu.Unlock()

	html, err = s.render.Modal(m)
	s.patch(v, views.TargetModal, html, err)
}

// SelectImage swaps the modal's main image for the image at index.
func (s *Service) SelectImage(v *View, index int) {
	v.mu.Lock()
	if v.modal == nil || len(v.modal.Product.Images) == 0 {
		v.mu.Unlock()
		return
	}
	v.modal.ActiveImage = clamp(index, 0, len(v.modal.Product.Images)-1)
	m := *v.modal
	v.mu.Unlock()

	html, err := s.render.ModalGallery(m)
	s.patch(v, views.TargetModalGallery, html, err)
}

// CloseModal removes the detail modal, which also releases the page scroll.
func (s *Service) CloseModal(v *View) {
	v.mu.Lock()
	open := v.modal != nil
	v.modal = nil
	v.mu.Unlock()

	if open {
		v.send(views.TargetModal, "")
	}
}

// AddToCart re-checks stock, adds one unit for the view's user and reflects
// the result. Guests are sent to the login page.
func (s *Service) AddToCart(ctx context.Context, v *View, productID string, closeModal bool) {
	u := v.User()
	if u == nil {
		s.redirect(v, s.cfg.LoginURL)
		return
	}

	p, err := s.api.FeaturedProduct(ctx, productID)
	if err != nil {
		slog.Error("stock check failed", "view", v.ID, "product", productID, "error", err)
		if apiclient.IsTransport(err) {
			s.Notify(v, msgNetwork, views.ToastError)
		} else {
			s.Notify(v, msgAvailability, views.ToastError)
		}
		return
	}

	stock := p.AvailableStock()
	if stock <= 0 {
		s.Notify(v, msgOutOfStock, views.ToastError)
		return
	}

	err = s.api.AddToCart(ctx, v.Visitor, u.Key(), productID, 1)
	switch {
	case err == nil:
	case isUnauthorized(err):
		return
	case apiclient.IsTransport(err):
		slog.Error("add to cart failed", "view", v.ID, "product", productID, "error", err)
		s.Notify(v, msgNetwork, views.ToastError)
		return
	default:
		slog.Warn("add to cart rejected", "view", v.ID, "product", productID, "error", err)
		s.Notify(v, apiclient.Message(err, msgAddToCartFailed), views.ToastError)
		return
	}

	s.RefreshCartCount(ctx, v)
	s.Notify(v, msgAddedToCart, views.ToastSuccess)
	if closeModal {
		s.CloseModal(v)
	}
	s.markStock(v, productID, stock-1)
}

// markStock shows stock on every card of productID. The value is not
// reconciled with the backend until the list is reloaded.
func (s *Service) markStock(v *View, productID string, stock int) {
	badge := views.OptimisticStock(stock)

	v.mu.Lock()
	var indexes []int
	for i, p := range v.products {
		if p.Key() == productID {
			v.stock[i] = badge
			indexes = append(indexes, i)
		}
	}
	c := v.carousel()
	v.mu.Unlock()

	for _, i := range indexes {
		html, err := s.render.Card(c, i)
		s.patch(v, views.CardTarget(i), html, err)
	}
}

func clamp(i, lo, hi int) int {
	return max(lo, min(i, hi))
}
