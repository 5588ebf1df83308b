package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/inventory"

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

const orderColumns = `id::text, customer_id, shipping_address, subtotal_cents, delivery_fee_cents, total_cents,
payment_method, payment_status, order_status, payment_info, created_at, updated_at`

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanOrder(row pgx.Row, o *domain.Order) error {
	return row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.ShippingAddress,
		&o.SubtotalCents,
		&o.DeliveryFeeCents,
		&o.TotalCents,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.OrderStatus,
		&o.PaymentInfo,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func (r *postgresRepo) Create(ctx context.Context, order *domain.Order, reservationTTL time.Duration) (*domain.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
INSERT INTO orders (customer_id, shipping_address, subtotal_cents, delivery_fee_cents, total_cents,
    payment_method, payment_status, order_status, payment_reference, payment_info)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
RETURNING ` + orderColumns

	var created domain.Order
	err = scanOrder(tx.QueryRow(ctx, insertOrder,
		order.CustomerID,
		order.ShippingAddress,
		order.SubtotalCents,
		order.DeliveryFeeCents,
		order.TotalCents,
		order.PaymentMethod,
		order.PaymentStatus,
		order.OrderStatus,
		order.PaymentInfo.Reference,
		order.PaymentInfo,
	), &created)
	if err != nil {
		r.logger.Printf("order repo: insert error=%v", err)
		return nil, err
	}

	const insertItem = `
INSERT INTO order_items (order_id, position, product_id, name, price_cents, quantity, size, image)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	for i, item := range order.Items {
		if _, err := tx.Exec(ctx, insertItem, created.ID, i, item.ProductID, item.Name, item.PriceCents, item.Quantity, item.Size, item.Image); err != nil {
			r.logger.Printf("order repo: insert item order_id=%s product_id=%s error=%v", created.ID, item.ProductID, err)
			return nil, err
		}
	}
	created.Items = append([]domain.LineItem(nil), order.Items...)

	if err := inventory.ReserveTx(ctx, tx, created.ID, created.StockLines(), time.Now().Add(reservationTTL)); err != nil {
		r.logger.Printf("order repo: reserve order_id=%s error=%v", created.ID, err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s total_cents=%d items=%d", created.ID, created.TotalCents, len(created.Items))
	return &created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.OrderNotFound(id)
	}
	return r.getOne(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE payment_reference = $1 ORDER BY created_at DESC LIMIT 1`
	return r.getOne(ctx, r.pool, q, reference)
}

func (r *postgresRepo) getOne(ctx context.Context, db queryer, q string, key string) (*domain.Order, error) {
	var o domain.Order
	if err := scanOrder(db.QueryRow(ctx, q, key), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("order repo: get key=%s not found", key)
			return nil, domain.OrderNotFound(key)
		}
		r.logger.Printf("order repo: get key=%s error=%v", key, err)
		return nil, err
	}
	items, err := loadItems(ctx, db, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`
	orders, err := r.list(ctx, q)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	r.logger.Printf("order repo: list count=%d", len(orders))
	return orders, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	if customerID == "" {
		return []domain.Order{}, nil
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC, id`
	orders, err := r.list(ctx, q, customerID)
	if err != nil {
		r.logger.Printf("order repo: list customer_id=%s error=%v", customerID, err)
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	var ids []string
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}
	items, err := loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func loadItems(ctx context.Context, db queryer, orderIDs []string) (map[string][]domain.LineItem, error) {
	const q = `
SELECT order_id::text, product_id::text, name, price_cents, quantity, size, image
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`
	rows, err := db.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.LineItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			item    domain.LineItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.PriceCents, &item.Quantity, &item.Size, &item.Image); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], item)
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.OrderNotFound(id)
	}
	const q = `
UPDATE orders SET order_status = $3, updated_at = now()
WHERE id = $1 AND order_status = $2 AND payment_status = 'Paid'
`
	cmd, err := r.pool.Exec(ctx, q, id, from, to)
	if err != nil {
		r.logger.Printf("order repo: update status id=%s error=%v", id, err)
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("order %s is %s/%s: %w", id, current.PaymentStatus, current.OrderStatus, domain.ErrInvalidTransition)
	}
	r.logger.Printf("order repo: status id=%s from=%q to=%q", id, from, to)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) CommitPayment(ctx context.Context, id string, info domain.PaymentInfo) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.OrderNotFound(id)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status domain.PaymentStatus
	err = tx.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.OrderNotFound(id)
		}
		return nil, err
	}
	if status == domain.PaymentPaid {
		return nil, domain.ErrAlreadyPaid
	}

	items, err := loadItems(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	if err := inventory.CommitTx(ctx, tx, id, domain.StockLinesFor(items[id])); err != nil {
		r.logger.Printf("order repo: commit stock order_id=%s error=%v", id, err)
		return nil, err
	}

	const markPaid = `
UPDATE orders
SET payment_status = 'Paid', payment_reference = COALESCE(NULLIF($2, ''), payment_reference), payment_info = $3, updated_at = now()
WHERE id = $1
`
	if _, err := tx.Exec(ctx, markPaid, id, info.Reference, info); err != nil {
		return nil, err
	}

	paid, err := r.getOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: paid id=%s reference=%s", id, info.Reference)
	return paid, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) (*domain.Order, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("order repo: delete id=%s error=%v", id, err)
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.OrderNotFound(id)
	}
	r.logger.Printf("order repo: deleted id=%s total_cents=%d payment_status=%s order_status=%q",
		existing.ID, existing.TotalCents, existing.PaymentStatus, existing.OrderStatus)
	return existing, nil
}

func (r *postgresRepo) ExpirePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
UPDATE orders SET payment_status = 'Failed', updated_at = now()
WHERE payment_status = 'Pending' AND created_at < $1
RETURNING id::text
`, cutoff)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM stock_reservations WHERE order_id = ANY($1::uuid[])`, ids); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		r.logger.Printf("order repo: expired count=%d cutoff=%s", len(ids), cutoff.Format(time.RFC3339))
	}
	return ids, nil
}
