package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	_ "github.com/rogerio-castellano/storefront/docs"
	"github.com/rogerio-castellano/storefront/internal/http/handlers"
	mw "github.com/rogerio-castellano/storefront/internal/http/middleware"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Options struct {
	Sessions     sessions.Store
	CSRFEnabled  bool
	CSRFKey      []byte
	CookieSecure bool
	// TrustProxy takes the client IP from X-Forwarded-For and X-Real-IP. Set
	// it only when a proxy in front of the server overwrites those headers.
	TrustProxy     bool
	TrustedOrigins []string
	// CartLimiter throttles add-to-cart per client IP. Nil disables it.
	CartLimiter *rl.Limiter
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(mw.SecurityHeaders)

	r.Get("/healthz", handlers.HealthHandler)
	r.Get("/stats", handlers.StatsHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group(func(r chi.Router) {
		r.Use(mw.Visitor(opts.Sessions))

		r.Post("/session", handlers.CreateSessionHandler)
		r.Delete("/session", handlers.DeleteSessionHandler)

		r.Group(func(r chi.Router) {
			if opts.CSRFEnabled {
				r.Use(mw.CSRF(opts.CSRFKey, opts.CookieSecure, opts.TrustedOrigins...))
			}

			r.Get("/", handlers.PageHandler)
			r.Route("/views/{id}", func(r chi.Router) {
				r.Get("/stream", handlers.StreamHandler)
				r.Post("/lifecycle", handlers.LifecycleHandler)
				r.Post("/slides/{index}", handlers.SelectSlideHandler)
				r.Get("/products/{productID}", handlers.OpenProductHandler)
				r.Post("/modal/images/{index}", handlers.SelectImageHandler)
				r.Post("/modal/close", handlers.CloseModalHandler)
				r.Post("/logout", handlers.LogoutHandler)

				r.Group(func(r chi.Router) {
					if opts.CartLimiter != nil {
						r.Use(mw.RateLimit(opts.CartLimiter))
					}
					r.Post("/cart", handlers.AddToCartHandler)
				})
			})
		})
	})

	return r
}
