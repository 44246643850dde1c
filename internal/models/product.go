package models

import "strings"

// Product is the part of the backend product record the storefront consumes.
type Product struct {
	ID            ID       `json:"_id,omitempty"`
	AltID         ID       `json:"id,omitempty"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Category      string   `json:"category"`
	Images        []string `json:"images"`
	Stock         int      `json:"stock"`
	StockQuantity int      `json:"stock_quantity"`
	Description   string   `json:"description"`
	Material      string   `json:"material,omitempty"`
	Features      string   `json:"features,omitempty"`
	SKU           string   `json:"sku,omitempty"`
	Size          string   `json:"size,omitempty"`
	Color         string   `json:"color,omitempty"`
}

func (p Product) Key() string {
	if p.ID != "" {
		return p.ID.String()
	}
	return p.AltID.String()
}

// AvailableStock mirrors the backend's two stock fields: "stock" wins when set.
func (p Product) AvailableStock() int {
	if p.Stock != 0 {
		return p.Stock
	}
	if p.StockQuantity != 0 {
		return p.StockQuantity
	}
	return 0
}

func (p Product) FeatureList() []string {
	if strings.TrimSpace(p.Features) == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(p.Features, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
