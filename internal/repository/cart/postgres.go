package cart

import (
	"context"
	"io"
	"log"

	"storefront/internal/domain"

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

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepo) Get(ctx context.Context, customerID string) (domain.CartData, error) {
	return fetchCart(ctx, r.pool, customerID)
}

func (r *postgresRepo) AddItem(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error) {
	if quantity <= 0 {
		return r.Get(ctx, customerID)
	}
	const q = `
INSERT INTO cart_items (customer_id, product_id, size, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id, product_id, size)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, customerID, productID, size, quantity); err != nil {
		r.logger.Printf("cart repo: add customer_id=%s product_id=%s error=%v", customerID, productID, err)
		return nil, err
	}
	return r.Get(ctx, customerID)
}

func (r *postgresRepo) SetQuantity(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error) {
	var err error
	if quantity <= 0 {
		_, err = r.pool.Exec(ctx, `
DELETE FROM cart_items
WHERE customer_id = $1 AND product_id = $2 AND size = $3
`, customerID, productID, size)
	} else {
		_, err = r.pool.Exec(ctx, `
INSERT INTO cart_items (customer_id, product_id, size, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id, product_id, size)
DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
`, customerID, productID, size, quantity)
	}
	if err != nil {
		r.logger.Printf("cart repo: set customer_id=%s product_id=%s error=%v", customerID, productID, err)
		return nil, err
	}
	return r.Get(ctx, customerID)
}

func (r *postgresRepo) Merge(ctx context.Context, customerID string, incoming domain.CartData) (domain.CartData, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO cart_items (customer_id, product_id, size, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id, product_id, size)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
`
	for _, line := range incoming.Lines() {
		if line.Quantity <= 0 {
			continue
		}
		if _, err := tx.Exec(ctx, q, customerID, line.ProductID, line.Size, line.Quantity); err != nil {
			r.logger.Printf("cart repo: merge customer_id=%s product_id=%s error=%v", customerID, line.ProductID, err)
			return nil, err
		}
	}
	merged, err := fetchCart(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("cart repo: merged customer_id=%s products=%d", customerID, len(merged))
	return merged, nil
}

func (r *postgresRepo) Clear(ctx context.Context, customerID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID); err != nil {
		r.logger.Printf("cart repo: clear customer_id=%s error=%v", customerID, err)
		return err
	}
	return nil
}

func fetchCart(ctx context.Context, db querier, customerID string) (domain.CartData, error) {
	const q = `
SELECT product_id::text, size, quantity
FROM cart_items
WHERE customer_id = $1
ORDER BY product_id, size
`
	rows, err := db.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart := domain.CartData{}
	for rows.Next() {
		var (
			productID string
			size      string
			quantity  int
		)
		if err := rows.Scan(&productID, &size, &quantity); err != nil {
			return nil, err
		}
		cart.Add(productID, size, quantity)
	}
	return cart, rows.Err()
}
