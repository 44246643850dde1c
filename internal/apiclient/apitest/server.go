// Package apitest runs an in-process fake of the backend API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rogerio-castellano/storefront/internal/auth"
	"github.com/rogerio-castellano/storefront/internal/models"
)

var signingSecret = []byte("apitest-signing-secret")

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]models.User
	signed   map[string]models.User
	products []models.Product
	carts    map[string]int
	failures map[string]failure
	hits     map[string]int
	streams  map[chan []byte]struct{}
	done     chan struct{}
	once     sync.Once
}

// NewServer starts a fake backend that is shut down when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		users:    make(map[string]models.User),
		signed:   make(map[string]models.User),
		carts:    make(map[string]int),
		failures: make(map[string]failure),
		hits:     make(map[string]int),
		streams:  make(map[chan []byte]struct{}),
		done:     make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(s.count, s.fail)
	r.Get("/api/auth/me", s.me)
	r.Get("/featured-products", s.featured)
	r.Get("/featured-products/{id}", s.product)
	r.Get("/cart/{userID}", s.cart)
	r.Post("/cart/{userID}/add", s.addToCart)
	r.Get("/events/stream", s.stream)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Close() {
	s.once.Do(func() {
		close(s.done)
		s.Server.CloseClientConnections()
		s.Server.Close()
	})
}

// AddUser makes token valid for u.
func (s *Server) AddUser(token string, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[token] = u
}

// IssueToken signs a token for u the way the real backend does. The token
// stays valid for ttl.
func (s *Server) IssueToken(t testing.TB, u models.User, ttl time.Duration) string {
	t.Helper()
	token, err := auth.GenerateToken(signingSecret, u.Key(), u.Role, ttl)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signed[u.Key()] = u
	return token
}

func (s *Server) SetProducts(products ...models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]models.Product(nil), products...)
}

func (s *Server) SetCart(userID string, items int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = items
}

// Fail makes every request to "METHOD /path" answer status with message.
// An empty message sends a body without an "error" field.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

func (s *Server) Heal(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hits returns how many requests reached "METHOD /path".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) Streams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Publish sends one raw data payload to every open event stream.
func (s *Server) Publish(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.streams {
		select {
		case ch <- []byte(data):
		default:
		}
	}
}

func (s *Server) PublishEvent(ev models.Event) {
	payload, _ := json.Marshal(ev)
	s.Publish(string(payload))
}

// DropStreams disconnects every open event stream.
func (s *Server) DropStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.streams {
		delete(s.streams, ch)
		close(ch)
	}
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) fail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if f.message == "" {
			writeJSON(w, f.status, map[string]string{"status": "failed"})
			return
		}
		writeJSON(w, f.status, map[string]string{"error": f.message})
	})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	u, ok := s.users[token]
	s.mu.Unlock()
	if !ok {
		u, ok = s.verify(token)
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}
	return u, ok
}

func (s *Server) verify(token string) (models.User, bool) {
	if _, err := auth.ParseToken(signingSecret, token); err != nil {
		return models.User{}, false
	}
	info, err := auth.Inspect(token)
	if err != nil {
		return models.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.signed[info.Subject]
	return u, ok
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	if u, ok := s.authorize(w, r); ok {
		writeJSON(w, http.StatusOK, u)
	}
}

func (s *Server) featured(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := append([]models.Product{}, s.products...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Key() == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
}

func (s *Server) cart(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}
	s.mu.Lock()
	items := s.carts[chi.URLParam(r, "userID")]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.CartSummary{TotalItems: items})
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}
	var req models.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart item"})
		return
	}

	userID := chi.URLParam(r, "userID")
	s.mu.Lock()
	s.carts[userID] += req.Quantity
	total := s.carts[userID]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.CartSummary{TotalItems: total})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan []byte, 16)
	s.mu.Lock()
	s.streams[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if _, ok := s.streams[ch]; ok {
			delete(s.streams, ch)
		}
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
