package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

// ProductWriter stores catalog entries keyed by Product.Key.
type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Products is the demo catalog. Prices are in cents.
var Products = []domain.Product{
	{
		Key:         "classic-tee",
		Name:        "Classic Cotton Tee",
		Description: "Heavyweight cotton t-shirt",
		PriceCents:  5000,
		Images:      []string{"https://images.example.com/classic-tee.jpg"},
		Sizes:       []string{"S", "M", "L", "XL"},
		Stock:       40,
	},
	{
		Key:         "kente-hoodie",
		Name:        "Kente Trim Hoodie",
		Description: "Fleece hoodie with woven kente trim",
		PriceCents:  18500,
		Images:      []string{"https://images.example.com/kente-hoodie.jpg", "https://images.example.com/kente-hoodie-back.jpg"},
		Sizes:       []string{"M", "L", "XL"},
		Stock:       12,
	},
	{
		Key:         "canvas-tote",
		Name:        "Canvas Tote Bag",
		Description: "Reinforced canvas tote",
		PriceCents:  3250,
		Images:      []string{"https://images.example.com/canvas-tote.jpg"},
		Stock:       25,
	},
	{
		Key:         "limited-cap",
		Name:        "Limited Edition Cap",
		Description: "Numbered run of snapback caps",
		PriceCents:  9900,
		Images:      []string{"https://images.example.com/limited-cap.jpg"},
		Sizes:       []string{"One Size"},
		Stock:       1,
	},
}

// Apply upserts the demo catalog. It is idempotent: products are matched by key.
func Apply(ctx context.Context, products ProductWriter) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(Products))
	for _, p := range Products {
		saved, err := products.Upsert(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
		out = append(out, *saved)
	}
	return out, nil
}
