package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *PaymentRepository) GetOrderForUpdate(ctx context.Context, orderID int64) (domain.Order, error) {
	const query = `
SELECT id, table_id, placed_at, delivered, paid, discount
FROM orders
WHERE id = $1
FOR UPDATE`

	var o domain.Order
	err := r.queryRow(ctx, query, orderID).
		Scan(&o.ID, &o.TableID, &o.PlacedAt, &o.Delivered, &o.Paid, &o.Discount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// CreatePayment inserts the ledger row. The UNIQUE constraint on order_id
// turns a racing second registration into ErrDuplicatePayment instead of a
// double entry.
func (r *PaymentRepository) CreatePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	const stmt = `
INSERT INTO payments (order_id, amount, method, paid_at)
VALUES ($1, $2, $3, $4)
RETURNING id`

	err := r.queryRow(ctx, stmt, payment.OrderID, payment.Amount, payment.Method, payment.PaidAt).
		Scan(&payment.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Payment{}, domain.ErrDuplicatePayment
		}
		if isForeignKeyViolation(err) {
			return domain.Payment{}, domain.ErrOrderNotFound
		}
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

func (r *PaymentRepository) MarkOrderPaid(ctx context.Context, orderID int64) error {
	const stmt = `UPDATE orders SET paid = TRUE WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, id int64) (domain.Payment, error) {
	const query = `SELECT id, order_id, amount, method, paid_at FROM payments WHERE id = $1`

	var p domain.Payment
	err := r.queryRow(ctx, query, id).Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.PaidAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID int64) (domain.Payment, error) {
	const query = `SELECT id, order_id, amount, method, paid_at FROM payments WHERE order_id = $1`

	var p domain.Payment
	err := r.queryRow(ctx, query, orderID).Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.PaidAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("get payment by order: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	const query = `SELECT id, order_id, amount, method, paid_at FROM payments ORDER BY paid_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate payments: %w", rows.Err())
	}
	return payments, nil
}

func (r *PaymentRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PaymentRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
