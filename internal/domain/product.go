package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Images      []string  `json:"images"`
	Sizes       []string  `json:"sizes"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasSize reports whether size is offered. Products without a size list accept any size.
func (p Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// PrimaryImage returns the first image URL, or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// StockLine is a quantity of one product, independent of size.
type StockLine struct {
	ProductID string
	Quantity  int
}
