package apiclient

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rogerio-castellano/storefront/internal/apiclient/apitest"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitor = "visitor-1"

func setup(t *testing.T) (*Client, *apitest.Server, storage.Storage) {
	t.Helper()
	api := apitest.NewServer(t)
	store := storage.NewMemoryStorage()
	c := New(Options{BaseURL: api.URL, Timeout: 2 * time.Second}, store)
	return c, api, store
}

func login(t *testing.T, api *apitest.Server, store storage.Storage, u models.User) {
	t.Helper()
	ctx := context.Background()
	api.AddUser("good-token", u)
	require.NoError(t, store.Set(ctx, visitor, storage.KeyAccessToken, "good-token"))
	require.NoError(t, store.Set(ctx, visitor, storage.KeyRefreshToken, "refresh"))
	require.NoError(t, store.Set(ctx, visitor, storage.KeyUser, `{"_id":"u1"}`))
}

func TestMe(t *testing.T) {
	c, api, store := setup(t)
	login(t, api, store, models.User{ID: "u1", FirstName: "Ada", Role: "admin"})

	u, err := c.Me(context.Background(), visitor)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.Key())
	assert.True(t, u.IsAdmin())
}

func TestDoAuth_UnauthorizedClearsSession(t *testing.T) {
	c, api, store := setup(t)
	login(t, api, store, models.User{ID: "u1"})
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, visitor, storage.KeyAccessToken, "expired"))

	var hooked atomic.Int32
	c.OnUnauthorized(func(_ context.Context, v string) {
		assert.Equal(t, visitor, v)
		hooked.Add(1)
	})

	_, err := c.Cart(ctx, visitor, "u1")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualValues(t, 1, hooked.Load())

	for _, key := range storage.SessionKeys {
		_, err := store.Get(ctx, visitor, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}
}

func TestDoAuth_SendsBearer(t *testing.T) {
	c, api, store := setup(t)
	login(t, api, store, models.User{ID: "u1"})
	api.SetCart("u1", 3)

	summary, err := c.Cart(context.Background(), visitor, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalItems)
}

func TestAddToCart(t *testing.T) {
	c, api, store := setup(t)
	login(t, api, store, models.User{ID: "u1"})
	ctx := context.Background()

	require.NoError(t, c.AddToCart(ctx, visitor, "u1", "p1", 1))
	summary, err := c.Cart(ctx, visitor, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalItems)

	api.Fail("POST /cart/u1/add", http.StatusConflict, "Insufficient stock")
	err = c.AddToCart(ctx, visitor, "u1", "p1", 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Insufficient stock", Message(err, msgAddToCart))

	api.Fail("POST /cart/u1/add", http.StatusInternalServerError, "")
	err = c.AddToCart(ctx, visitor, "u1", "p1", 1)
	assert.Equal(t, msgAddToCart, Message(err, "unused"))
	assert.False(t, IsTransport(err))
}

func TestFeaturedProducts(t *testing.T) {
	c, api, _ := setup(t)
	api.SetProducts(
		models.Product{ID: "p1", Name: "Ankara Dress", Price: 25000, StockQuantity: 4},
		models.Product{AltID: "2", Name: "Kente Scarf", Price: 8000},
	)
	ctx := context.Background()

	products, err := c.FeaturedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Ankara Dress", products[0].Name)

	p, err := c.FeaturedProduct(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Kente Scarf", p.Name)

	_, err = c.FeaturedProduct(ctx, "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestTransportFailureTripsBreaker(t *testing.T) {
	store := storage.NewMemoryStorage()
	c := New(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, BreakerFailures: 2}, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.FeaturedProducts(ctx)
		require.Error(t, err)
		assert.True(t, IsTransport(err))
	}

	_, err := c.FeaturedProducts(ctx)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, "open", c.BreakerState())
}

func TestEventStream(t *testing.T) {
	c, api, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := c.EventStream(ctx)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return api.Streams() == 1 }, time.Second, 10*time.Millisecond)
	api.Publish(`{"event":"product_updated"}`)

	scanner := bufio.NewScanner(resp.Body)
	var line string
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data:") {
			line = scanner.Text()
			break
		}
	}
	assert.Equal(t, `data: {"event":"product_updated"}`, line)
}
