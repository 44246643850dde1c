package models

import "strconv"

type CartSummary struct {
	TotalItems int `json:"total_items"`
}

// BadgeText caps the displayed count at "99+".
func (c CartSummary) BadgeText() string {
	if c.TotalItems > 99 {
		return "99+"
	}
	return strconv.Itoa(c.TotalItems)
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
