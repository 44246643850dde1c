package views

import (
	"fmt"
	"strconv"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type userData struct {
	ViewID   string
	User     *models.User
	LoginURL string
}

// UserSection renders the header account area; a nil user renders the guest link.
func (r *Renderer) UserSection(viewID string, u *models.User) (string, error) {
	return r.execute("user-section", userData{ViewID: viewID, User: u, LoginURL: r.loginURL})
}

func (r *Renderer) MobileUserSection(viewID string, u *models.User) (string, error) {
	return r.execute("mobile-user-section", userData{ViewID: viewID, User: u, LoginURL: r.loginURL})
}

func (r *Renderer) CartBadge(summary models.CartSummary) string {
	return summary.BadgeText()
}

// StockBadge is the stock state shown on a carousel card.
type StockBadge struct {
	Label   string
	Class   string
	SoldOut bool
}

const (
	classPlenty = "bg-red-100 text-red-800"
	classLow    = "bg-amber-100 text-amber-800"
)

// CardStock labels a freshly rendered card. Cards without stock_quantity show
// no badge.
func CardStock(p models.Product) StockBadge {
	var b StockBadge
	switch q := p.StockQuantity; {
	case q == 0:
	case q > 10:
		b.Label, b.Class = "In Stock", classPlenty
	default:
		b.Label, b.Class = fmt.Sprintf("Only %d left", q), classLow
	}
	return b
}

// OptimisticStock labels a card after an add-to-cart, before the backend
// confirms the new stock level.
func OptimisticStock(stock int) StockBadge {
	if stock > 10 {
		return StockBadge{Label: "In Stock", Class: classPlenty}
	}
	return StockBadge{Label: fmt.Sprintf("%d remaining", stock), Class: classLow, SoldOut: stock <= 0}
}

type cardData struct {
	ViewID      string
	Index       int
	Product     models.Product
	Image       string
	Placeholder string
	Description string
	Stock       StockBadge
}

type indicator struct {
	Index  int
	Active bool
}

type featuredData struct {
	ViewID     string
	Cards      []cardData
	Indicators []indicator
	Prev, Next int
	Offset     int
}

// Carousel is the featured list as shown in one view. Stock holds badges that
// replace the computed ones, keyed by card index.
type Carousel struct {
	ViewID   string
	Products []models.Product
	Active   int
	Stock    map[int]StockBadge
}

func placeholder(index int) string {
	return "https://picsum.photos/300/400?random=" + strconv.Itoa(index)
}

func (c Carousel) data() featuredData {
	d := featuredData{ViewID: c.ViewID, Offset: c.Active * 100}
	for i, p := range c.Products {
		card := cardData{
			ViewID:      c.ViewID,
			Index:       i,
			Product:     p,
			Image:       placeholder(i),
			Placeholder: placeholder(i),
			Description: p.Description,
			Stock:       CardStock(p),
		}
		if len(p.Images) > 0 && p.Images[0] != "" {
			card.Image = p.Images[0]
		}
		if card.Description == "" {
			card.Description = defaultDescription
		}
		if b, ok := c.Stock[i]; ok {
			card.Stock = b
		}
		d.Cards = append(d.Cards, card)
		d.Indicators = append(d.Indicators, indicator{Index: i, Active: i == c.Active})
	}
	d.Prev = max(c.Active-1, 0)
	d.Next = min(c.Active+1, max(len(c.Products)-1, 0))
	return d
}

// Featured renders the whole featured section: header, cards and indicators.
func (r *Renderer) Featured(c Carousel) (string, error) {
	return r.execute("featured", c.data())
}

// Card renders the card at index alone, for patching it in place.
func (r *Renderer) Card(c Carousel, index int) (string, error) {
	d := c.data()
	if index < 0 || index >= len(d.Cards) {
		return "", fmt.Errorf("card %d out of range", index)
	}
	return r.execute("card", d.Cards[index])
}

func (r *Renderer) FeaturedTrack(c Carousel) (string, error) {
	return r.execute("featured-track", c.data())
}

func (r *Renderer) FeaturedIndicators(c Carousel) (string, error) {
	return r.execute("featured-indicators", c.data())
}

func (r *Renderer) Spinner() (string, error) {
	return r.execute("spinner", nil)
}

type modalData struct {
	ViewID      string
	Product     models.Product
	ActiveImage int
	MainImage   string
	Stock       int
	StockLabel  string
	StockClass  string
	StockIcon   string
	OutOfStock  bool
	Category    string
	Description string
	Features    []string
}

// Modal is the product detail dialog of one view.
type Modal struct {
	ViewID      string
	Product     models.Product
	ActiveImage int
}

func (m Modal) data() modalData {
	p := m.Product
	stock := p.AvailableStock()
	d := modalData{
		ViewID:      m.ViewID,
		Product:     p,
		ActiveImage: m.ActiveImage,
		MainImage:   modalPlaceholder,
		Stock:       stock,
		Category:    p.Category,
		Description: p.Description,
		Features:    p.FeatureList(),
	}
	if m.ActiveImage >= 0 && m.ActiveImage < len(p.Images) {
		d.MainImage = p.Images[m.ActiveImage]
	}
	if d.Category == "" {
		d.Category = "Uncategorized"
	}
	if d.Description == "" {
		d.Description = "No description available."
	}

	switch {
	case stock > 10:
		d.StockLabel, d.StockClass, d.StockIcon = "In Stock", classPlenty, "fa-check-circle"
	case stock > 0:
		d.StockLabel, d.StockClass, d.StockIcon = fmt.Sprintf("%d remaining", stock), classLow, "fa-exclamation-triangle"
	default:
		d.StockLabel, d.StockClass, d.StockIcon = "Out of Stock", classPlenty, "fa-times-circle"
		d.OutOfStock = true
	}
	return d
}

func (r *Renderer) Modal(m Modal) (string, error) {
	return r.execute("modal", m.data())
}

func (r *Renderer) ModalGallery(m Modal) (string, error) {
	return r.execute("modal-gallery", m.data())
}

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type Toast struct {
	ID      string
	Message string
	Kind    ToastKind
}

func (r *Renderer) Toast(t Toast) (string, error) {
	return r.execute("toast", t)
}

type navigation struct {
	URL    string
	Reload bool
}

// Redirect renders a fragment that sends the tab to url.
func (r *Renderer) Redirect(url string) (string, error) {
	return r.execute("navigate", navigation{URL: url})
}

func (r *Renderer) Reload() (string, error) {
	return r.execute("navigate", navigation{Reload: true})
}
