package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository is the catalog lookup used by checkout and the seed/import tools.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
