package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rogerio-castellano/storefront/internal/models"
)

const (
	msgFetchUser      = "Failed to fetch user"
	msgLoadProducts   = "Failed to load products"
	msgProductDetails = "Failed to load product details"
	msgCart           = "Failed to fetch cart"
	msgAddToCart      = "Failed to add to cart"
)

func (c *Client) Me(ctx context.Context, visitor string) (models.User, error) {
	resp, err := c.DoAuth(ctx, visitor, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return models.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.User{}, decodeError(resp, msgFetchUser)
	}

	var u models.User
	if err := decodeJSON(resp, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/featured-products", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp, msgLoadProducts)
	}

	var products []models.Product
	if err := decodeJSON(resp, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) FeaturedProduct(ctx context.Context, id string) (models.Product, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/featured-products/"+url.PathEscape(id), nil)
	if err != nil {
		return models.Product{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Product{}, decodeError(resp, msgProductDetails)
	}

	var p models.Product
	if err := decodeJSON(resp, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (c *Client) Cart(ctx context.Context, visitor, userID string) (models.CartSummary, error) {
	resp, err := c.DoAuth(ctx, visitor, http.MethodGet, "/cart/"+url.PathEscape(userID), nil)
	if err != nil {
		return models.CartSummary{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.CartSummary{}, decodeError(resp, msgCart)
	}

	var summary models.CartSummary
	if err := decodeJSON(resp, &summary); err != nil {
		return models.CartSummary{}, err
	}
	return summary, nil
}

func (c *Client) AddToCart(ctx context.Context, visitor, userID, productID string, quantity int) error {
	body := models.AddToCartRequest{ProductID: productID, Quantity: quantity}
	resp, err := c.DoAuth(ctx, visitor, http.MethodPost, fmt.Sprintf("/cart/%s/add", url.PathEscape(userID)), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, msgAddToCart)
	}
	return nil
}

// EventStream opens the backend's push channel. The caller owns the body and
// ends the stream by cancelling ctx.
func (c *Client) EventStream(ctx context.Context) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/events/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp, "event stream unavailable")
	}
	return resp, nil
}
