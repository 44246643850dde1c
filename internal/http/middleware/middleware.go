package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
)

type contextKey string

const visitorKey = contextKey("visitor")

const (
	sessionName  = "storefront"
	visitorField = "visitor"
)

// RequestLogger logs the details of each HTTP request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"ip", r.RemoteAddr,
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// SecurityHeaders adds standard security headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Visitor makes sure every request carries a visitor id, kept in a signed
// session cookie. The id keys the visitor's stored session.
func Visitor(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, sessionName)
			if err != nil {
				slog.Warn("discarding unreadable session cookie", "error", err)
			}

			id, _ := session.Values[visitorField].(string)
			if id == "" {
				id = uuid.NewString()
				session.Values[visitorField] = id
				if err := session.Save(r, w); err != nil {
					slog.Error("failed to save session", "error", err)
					http.Error(w, "failed to start session", http.StatusInternalServerError)
					return
				}
			}

			ctx := context.WithValue(r.Context(), visitorKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetVisitor(r *http.Request) string {
	if val, ok := r.Context().Value(visitorKey).(string); ok {
		return val
	}
	return ""
}

// NewSessionStore returns the cookie store used by Visitor.
func NewSessionStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CSRF protects state-changing requests. Without TLS the request is marked as
// plaintext so the origin check does not demand https.
func CSRF(key []byte, secure bool, trusted ...string) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.TrustedOrigins(trusted),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects clients that exceed their per-IP budget.
func RateLimit(l *rl.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !l.Allow(ip) {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
