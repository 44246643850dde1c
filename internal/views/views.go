// Package views renders the storefront page and the fragments pushed to it.
// Each fragment targets one sse-swap slot of the page; the Target constants
// name those slots.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TargetPreloader         = "preloader"
	TargetGlobalLoader      = "global-loader"
	TargetUserSection       = "user-section"
	TargetMobileUserSection = "mobile-user-section"
	TargetCartBadge         = "cart-badge"
	TargetFeatured          = "featured"
	TargetFeaturedTrack     = "featured-track"
	TargetIndicators        = "featured-indicators"
	TargetSpinner           = "spinner"
	TargetModal             = "modal"
	TargetModalGallery      = "modal-gallery"
	TargetToast             = "toast"
	TargetNavigate          = "navigate"
)

// Static sections revealed after the page loads.
const (
	SectionNav        = "nav"
	SectionMobileNav  = "mobile-nav"
	SectionHero       = "hero"
	SectionCategories = "categories"
	SectionNewsletter = "newsletter"
)

// CardTarget is the slot of the carousel card at index.
func CardTarget(index int) string {
	return "card-" + strconv.Itoa(index)
}

const (
	defaultDescription = "Premium African fashion item"
	modalPlaceholder   = "/assets/images/placeholder.jpg"
)

type Renderer struct {
	tmpl     *template.Template
	currency string
	loginURL string
}

func New(currency, loginURL string) (*Renderer, error) {
	funcs := template.FuncMap{
		"money":      func(price float64) string { return Money(currency, price) },
		"pathEscape": url.PathEscape,
		"inc":        func(i int) int { return i + 1 },
	}

	tmpl, err := template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, currency: currency, loginURL: loginURL}, nil
}

// Money formats price with two decimals after the currency symbol.
func Money(currency string, price float64) string {
	return currency + decimal.NewFromFloat(price).StringFixed(2)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type PageData struct {
	ViewID    string
	CSRFToken string
	Title     string
}

type pageData struct {
	PageData
	Preloader PreloaderState
	Loader    LoaderState
}

// Page renders the shell with the preloader injected and the global loader
// showing. Everything else arrives as frames.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "Naija Style Co."
	}
	return r.tmpl.ExecuteTemplate(w, "page", pageData{
		PageData:  data,
		Preloader: PreloaderInjected,
		Loader:    LoaderVisible,
	})
}

// Section renders a static section, revealed or as its skeleton.
func (r *Renderer) Section(name string, revealed bool) (string, error) {
	return r.execute("section-"+name, revealed)
}

// PreloaderState is one step of the overlay's life.
type PreloaderState string

const (
	PreloaderInjected PreloaderState = "injected"
	PreloaderFading   PreloaderState = "fading"
	PreloaderHidden   PreloaderState = "hidden"
	PreloaderDetached PreloaderState = "detached"
)

func (r *Renderer) Preloader(state PreloaderState) (string, error) {
	return r.execute("preloader", string(state))
}

type LoaderState string

const (
	LoaderVisible LoaderState = "visible"
	LoaderFading  LoaderState = "fading"
	LoaderHidden  LoaderState = "hidden"
)

func (r *Renderer) GlobalLoader(state LoaderState) (string, error) {
	return r.execute("global-loader", string(state))
}
