package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectColumns = `id::text, key, name, COALESCE(description, ''), price_cents, images, sizes, stock, created_at`

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Key, &p.Name, &p.Description, &p.PriceCents, &p.Images, &p.Sizes, &p.Stock, &p.CreatedAt)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	// Malformed ids cannot exist; answer not-found rather than a cast error.
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ProductNotFound(id)
	}
	q := `SELECT ` + selectColumns + ` FROM products WHERE id = $1`
	var p domain.Product
	err := scanProduct(r.pool.QueryRow(ctx, q, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ProductNotFound(id)
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, key, name, description, price_cents, images, sizes, stock)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
ON CONFLICT (key) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    images = EXCLUDED.images,
    sizes = EXCLUDED.sizes,
    stock = EXCLUDED.stock
RETURNING id::text, created_at
`
	images := product.Images
	if images == nil {
		images = []string{}
	}
	sizes := product.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.Name,
		product.Description,
		product.PriceCents,
		images,
		sizes,
		product.Stock,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert key=%s error=%v", product.Key, err)
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	res.Images = images
	res.Sizes = sizes
	r.logger.Printf("product repo: upserted key=%s id=%s stock=%d", res.Key, res.ID, res.Stock)
	return &res, nil
}
