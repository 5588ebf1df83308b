package inventory

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"time"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresLedger struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Ledger {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresLedger{pool: pool, logger: logger}
}

func (l *postgresLedger) Free(ctx context.Context, productID string) (int, error) {
	const q = `
SELECT p.stock - COALESCE((
	SELECT SUM(r.quantity)
	FROM stock_reservations r
	WHERE r.product_id = p.id AND r.expires_at > now()
), 0)
FROM products p
WHERE p.id = $1
`
	var free int
	if err := l.pool.QueryRow(ctx, q, productID).Scan(&free); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ProductNotFound(productID)
		}
		return 0, err
	}
	return max(free, 0), nil
}

func (l *postgresLedger) Reserve(ctx context.Context, orderID string, lines []domain.StockLine, ttl time.Duration) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := ReserveTx(ctx, tx, orderID, lines, time.Now().Add(ttl)); err != nil {
		l.logger.Printf("inventory: reserve order_id=%s error=%v", orderID, err)
		return err
	}
	return tx.Commit(ctx)
}

func (l *postgresLedger) Release(ctx context.Context, orderID string) error {
	cmd, err := l.pool.Exec(ctx, `DELETE FROM stock_reservations WHERE order_id = $1`, orderID)
	if err != nil {
		return err
	}
	l.logger.Printf("inventory: released order_id=%s rows=%d", orderID, cmd.RowsAffected())
	return nil
}

func (l *postgresLedger) Decrement(ctx context.Context, productID string, quantity int) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := DecrementTx(ctx, tx, productID, quantity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *postgresLedger) Commit(ctx context.Context, orderID string, lines []domain.StockLine) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := CommitTx(ctx, tx, orderID, lines); err != nil {
		l.logger.Printf("inventory: commit order_id=%s error=%v", orderID, err)
		return err
	}
	return tx.Commit(ctx)
}

func (l *postgresLedger) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	cmd, err := l.pool.Exec(ctx, `DELETE FROM stock_reservations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

// ReserveTx locks each product row in id order, checks free stock net of other
// orders' live reservations, and records a reservation per line.
func ReserveTx(ctx context.Context, tx pgx.Tx, orderID string, lines []domain.StockLine, expiresAt time.Time) error {
	for _, line := range sortedLines(lines) {
		var (
			name  string
			stock int
		)
		err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id = $1 FOR UPDATE`, line.ProductID).Scan(&name, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ProductNotFound(line.ProductID)
			}
			return err
		}
		var held int
		err = tx.QueryRow(ctx, `
SELECT COALESCE(SUM(quantity), 0)
FROM stock_reservations
WHERE product_id = $1 AND order_id <> $2 AND expires_at > now()
`, line.ProductID, orderID).Scan(&held)
		if err != nil {
			return err
		}
		if free := stock - held; free < line.Quantity {
			return &domain.StockError{ProductID: line.ProductID, Name: name, Requested: line.Quantity, Available: max(free, 0)}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO stock_reservations (order_id, product_id, quantity, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (order_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, expires_at = EXCLUDED.expires_at
`, orderID, line.ProductID, line.Quantity, expiresAt); err != nil {
			return err
		}
	}
	return nil
}

// DecrementTx subtracts quantity guarded by stock >= quantity in a single statement.
func DecrementTx(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	cmd, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, productID, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var (
		name  string
		stock int
	)
	if err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id = $1`, productID).Scan(&name, &stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProductNotFound(productID)
		}
		return err
	}
	return &domain.StockError{ProductID: productID, Name: name, Requested: quantity, Available: stock}
}

// CommitTx decrements every line and drops orderID's reservations inside tx.
func CommitTx(ctx context.Context, tx pgx.Tx, orderID string, lines []domain.StockLine) error {
	for _, line := range sortedLines(lines) {
		if err := DecrementTx(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	_, err := tx.Exec(ctx, `DELETE FROM stock_reservations WHERE order_id = $1`, orderID)
	return err
}

// sortedLines orders by product id so concurrent transactions lock rows in the same order.
func sortedLines(lines []domain.StockLine) []domain.StockLine {
	out := append([]domain.StockLine(nil), lines...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
