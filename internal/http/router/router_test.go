package router_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rogerio-castellano/storefront/internal/apiclient"
	"github.com/rogerio-castellano/storefront/internal/apiclient/apitest"
	"github.com/rogerio-castellano/storefront/internal/http/handlers"
	mw "github.com/rogerio-castellano/storefront/internal/http/middleware"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	"github.com/rogerio-castellano/storefront/internal/http/router"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/push"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/rogerio-castellano/storefront/internal/storefront"
	"github.com/rogerio-castellano/storefront/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

var viewIDPattern = regexp.MustCompile(`sse-connect="/views/([0-9a-f-]+)/stream"`)

type env struct {
	handler http.Handler
	svc     *storefront.Service
	store   *storage.MemoryStorage
	api     *apitest.Server
}

func setup(t *testing.T, opts router.Options) *env {
	t.Helper()
	api := apitest.NewServer(t)
	api.SetProducts(models.Product{ID: "p1", Name: "Ankara Dress", Price: 25000, Stock: 5})

	store := storage.NewMemoryStorage()
	client := apiclient.New(apiclient.Options{BaseURL: api.URL, Timeout: 2 * time.Second}, store)
	render, err := views.New("₦", "/auth/login")
	require.NoError(t, err)
	hub := push.NewHub()
	svc := storefront.NewService(client, store, hub, render, clockwork.NewFakeClock(), storefront.DefaultConfig())
	client.OnUnauthorized(svc.HandleUnauthorized)
	t.Cleanup(svc.Close)

	handlers.SetService(svc)
	handlers.SetStorage(store)
	handlers.SetHub(hub)
	handlers.SetBreaker(client)

	if opts.Sessions == nil {
		opts.Sessions = mw.NewSessionStore(testKey, false)
	}
	return &env{handler: router.NewRouter(opts), svc: svc, store: store, api: api}
}

// openPage loads the page and returns the new view id and the visitor cookie.
func (e *env) openPage(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	m := viewIDPattern.FindStringSubmatch(w.Body.String())
	require.Len(t, m, 2)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return m[1], cookies[0]
}

func (e *env) do(method, target string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *env) visitorOf(t *testing.T, viewID string) string {
	t.Helper()
	v, err := e.svc.View(viewID)
	require.NoError(t, err)
	return v.Visitor
}

func TestHealthAndStats(t *testing.T) {
	e := setup(t, router.Options{})
	e.openPage(t)

	w := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = e.do(http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats handlers.StatsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Views.Views)
	assert.Equal(t, "closed", stats.Breaker)
}

func TestPage_OpensView(t *testing.T) {
	e := setup(t, router.Options{})
	w := e.do(http.MethodGet, "/", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	m := viewIDPattern.FindStringSubmatch(w.Body.String())
	require.Len(t, m, 2)
	_, err := e.svc.View(m[1])
	assert.NoError(t, err)
}

func TestViewRoutes_BelongToVisitor(t *testing.T) {
	e := setup(t, router.Options{})
	id, cookie := e.openPage(t)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodPost, "/views/"+id+"/modal/close", "", cookie).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/views/"+id+"/modal/close", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/views/nope/modal/close", "", cookie).Code)
}

func TestViewRoutes_InvalidInput(t *testing.T) {
	e := setup(t, router.Options{})
	id, cookie := e.openPage(t)

	tests := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"slide index not a number", "/views/" + id + "/slides/abc", "", http.StatusBadRequest},
		{"slide", "/views/" + id + "/slides/0", "", http.StatusNoContent},
		{"image index not a number", "/views/" + id + "/modal/images/x", "", http.StatusBadRequest},
		{"unknown lifecycle signal", "/views/" + id + "/lifecycle", "kind=unload", http.StatusBadRequest},
		{"negative image count", "/views/" + id + "/lifecycle", "kind=dom&images=-1", http.StatusBadRequest},
		{"dom ready", "/views/" + id + "/lifecycle", "kind=dom&images=3", http.StatusNoContent},
		{"cart without product", "/views/" + id + "/cart", "close_modal=true", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, tt.target, tt.body, cookie)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestAddToCart_RateLimited(t *testing.T) {
	e := setup(t, router.Options{CartLimiter: rl.New(0.001, 1, clockwork.NewFakeClock())})
	id, cookie := e.openPage(t)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodPost, "/views/"+id+"/cart", "product_id=p1", cookie).Code)
	assert.Equal(t, http.StatusTooManyRequests, e.do(http.MethodPost, "/views/"+id+"/cart", "product_id=p1", cookie).Code)
}

func TestAddToCart_RateLimitIgnoresForwardedFor(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		second     int
	}{
		{"headers ignored", false, http.StatusTooManyRequests},
		{"behind a proxy", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t, router.Options{TrustProxy: tt.trustProxy, CartLimiter: rl.New(0.001, 1, clockwork.NewFakeClock())})
			id, cookie := e.openPage(t)

			post := func(forwarded string) int {
				req := httptest.NewRequest(http.MethodPost, "/views/"+id+"/cart", strings.NewReader("product_id=p1"))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				req.Header.Set("X-Forwarded-For", forwarded)
				req.AddCookie(cookie)
				w := httptest.NewRecorder()
				e.handler.ServeHTTP(w, req)
				return w.Code
			}

			assert.Equal(t, http.StatusNoContent, post("203.0.113.1"))
			assert.Equal(t, tt.second, post("203.0.113.2"))
		})
	}
}

func TestSession_HandOffAndClear(t *testing.T) {
	e := setup(t, router.Options{})
	id, cookie := e.openPage(t)
	visitor := e.visitorOf(t, id)
	ctx := context.Background()

	body := `{"access_token":"tok","refresh_token":"ref","user":{"_id":"u1","first_name":"Ada"}}`
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	token, err := e.store.Get(ctx, visitor, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	user, err := e.store.Get(ctx, visitor, storage.KeyUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","first_name":"Ada"}`, user)

	w = e.do(http.MethodDelete, "/session", "", cookie)
	require.Equal(t, http.StatusNoContent, w.Code)
	for _, key := range storage.SessionKeys {
		_, err := e.store.Get(ctx, visitor, key)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func postSession(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return req
}

func TestSession_Validation(t *testing.T) {
	e := setup(t, router.Options{})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing token", `{"refresh_token":"x"}`, "access_token"},
		{"user not an object", `{"access_token":"t","user":"ada"}`, "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			e.handler.ServeHTTP(w, postSession(tt.body))
			require.Equal(t, http.StatusBadRequest, w.Code)

			var errs []handlers.SessionValidationError
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errs))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, postSession(`{"access_token":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSession_RejectsFormPosts(t *testing.T) {
	e := setup(t, router.Options{CSRFEnabled: true, CSRFKey: testKey})
	id, cookie := e.openPage(t)
	visitor := e.visitorOf(t, id)

	body := `{"access_token":"attacker","refresh_token":"x"}`
	for _, ct := range []string{"text/plain", "application/x-www-form-urlencoded", ""} {
		t.Run(ct, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body))
			if ct != "" {
				req.Header.Set("Content-Type", ct)
			}
			req.Header.Set("Origin", "https://evil.example")
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			e.handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		})
	}

	for _, key := range storage.SessionKeys {
		_, err := e.store.Get(context.Background(), visitor, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}
}

func TestCSRF_ProtectsViewPosts(t *testing.T) {
	e := setup(t, router.Options{CSRFEnabled: true, CSRFKey: testKey})

	w := e.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	id := viewIDPattern.FindStringSubmatch(w.Body.String())[1]
	token := regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`).FindStringSubmatch(w.Body.String())
	require.Len(t, token, 2)

	jar := w.Result().Cookies()
	send := func(withToken bool) int {
		req := httptest.NewRequest(http.MethodPost, "/views/"+id+"/modal/close", nil)
		for _, c := range jar {
			req.AddCookie(c)
		}
		if withToken {
			req.Header.Set("X-CSRF-Token", html.UnescapeString(token[1]))
		}
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusForbidden, send(false))
	assert.Equal(t, http.StatusNoContent, send(true))
}

// readEvents forwards the event names of an SSE body until it ends.
func readEvents(body io.Reader) <-chan string {
	events := make(chan string, 64)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event:"); ok {
				events <- name
			}
		}
	}()
	return events
}

func waitForEvents(t *testing.T, events <-chan string, want ...string) {
	t.Helper()
	seen := map[string]bool{}
	deadline := time.After(3 * time.Second)
	for {
		missing := false
		for _, name := range want {
			if !seen[name] {
				missing = true
			}
		}
		if !missing {
			return
		}
		select {
		case name, ok := <-events:
			require.True(t, ok, "stream ended early")
			seen[name] = true
		case <-deadline:
			t.Fatalf("missing frames %v, saw %v", want, seen)
		}
	}
}

func TestStream_DeliversFramesAndSurvivesReconnect(t *testing.T) {
	e := setup(t, router.Options{})
	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	var page bytes.Buffer
	page.ReadFrom(resp.Body)
	resp.Body.Close()
	id := viewIDPattern.FindStringSubmatch(page.String())[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/views/"+id+"/stream", nil)
	require.NoError(t, err)
	stream, err := client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))
	waitForEvents(t, readEvents(stream.Body), "user-section", "featured")

	target, _ := url.Parse(srv.URL)
	second, err := http.NewRequest(http.MethodGet, srv.URL+"/views/"+id+"/stream", nil)
	require.NoError(t, err)
	for _, c := range jar.Cookies(target) {
		second.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, second)
	assert.Equal(t, http.StatusConflict, w.Code)

	cancel()
	stream.Body.Close()
	v, err := e.svc.View(id)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !v.Connected() }, 3*time.Second, 20*time.Millisecond)

	// The view outlives its stream and keeps taking actions.
	post, err := client.Post(srv.URL+"/views/"+id+"/slides/0", "", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusNoContent, post.StatusCode)
	e.svc.Notify(v, "Added to cart", views.ToastSuccess)

	again, err := http.NewRequest(http.MethodGet, srv.URL+"/views/"+id+"/stream", nil)
	require.NoError(t, err)
	resumed, err := client.Do(again)
	require.NoError(t, err)
	defer resumed.Body.Close()
	require.Equal(t, http.StatusOK, resumed.StatusCode)
	waitForEvents(t, readEvents(resumed.Body), "toast")
	assert.True(t, v.Connected())
}
