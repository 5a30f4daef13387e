package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

type FeedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

func (r *FeedbackRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetOrder loads the header only; the same-day and table checks need no
// lines.
func (r *FeedbackRepository) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	const query = `SELECT id, table_id, placed_at, delivered, paid, discount FROM orders WHERE id = $1`

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

func (r *FeedbackRepository) GetTable(ctx context.Context, tableID int64) (domain.Table, error) {
	const query = `SELECT id, capacity, location FROM tables WHERE id = $1`

	var t domain.Table
	err := r.queryRow(ctx, query, tableID).Scan(&t.ID, &t.Capacity, &t.Location)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Table{}, domain.ErrTableNotFound
		}
		return domain.Table{}, fmt.Errorf("get table: %w", err)
	}
	return t, nil
}

func (r *FeedbackRepository) Create(ctx context.Context, fb domain.Feedback) (domain.Feedback, error) {
	const stmt = `
INSERT INTO feedback (order_id, table_id, customer_name, food_rating, service_rating, comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	err := r.queryRow(ctx, stmt,
		fb.OrderID,
		fb.TableID,
		fb.CustomerName,
		fb.FoodRating,
		fb.ServiceRating,
		fb.Comment,
		fb.CreatedAt,
	).Scan(&fb.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Feedback{}, domain.ErrOrderNotFound
		}
		return domain.Feedback{}, fmt.Errorf("create feedback: %w", err)
	}
	return fb, nil
}

func (r *FeedbackRepository) Get(ctx context.Context, id int64) (domain.Feedback, error) {
	const query = `
SELECT id, order_id, table_id, customer_name, food_rating, service_rating, comment, created_at
FROM feedback
WHERE id = $1`

	fb, err := scanFeedback(r.queryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Feedback{}, domain.ErrFeedbackNotFound
		}
		return domain.Feedback{}, fmt.Errorf("get feedback: %w", err)
	}
	return fb, nil
}

func (r *FeedbackRepository) Update(ctx context.Context, fb domain.Feedback) error {
	const stmt = `
UPDATE feedback
SET customer_name = $2, food_rating = $3, service_rating = $4, comment = $5
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, fb.ID, fb.CustomerName, fb.FoodRating, fb.ServiceRating, fb.Comment)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFeedbackNotFound
	}
	return nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id int64) error {
	const stmt = `DELETE FROM feedback WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFeedbackNotFound
	}
	return nil
}

func (r *FeedbackRepository) List(ctx context.Context) ([]domain.Feedback, error) {
	const query = `
SELECT id, order_id, table_id, customer_name, food_rating, service_rating, comment, created_at
FROM feedback
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *FeedbackRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Feedback, error) {
	const query = `
SELECT id, order_id, table_id, customer_name, food_rating, service_rating, comment, created_at
FROM feedback
WHERE order_id = $1
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, orderID)
}

func (r *FeedbackRepository) list(ctx context.Context, query string, args ...any) ([]domain.Feedback, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate feedback: %w", rows.Err())
	}
	return out, nil
}

func scanFeedback(row pgx.Row) (domain.Feedback, error) {
	var fb domain.Feedback
	err := row.Scan(&fb.ID, &fb.OrderID, &fb.TableID, &fb.CustomerName, &fb.FoodRating, &fb.ServiceRating, &fb.Comment, &fb.CreatedAt)
	if err != nil {
		return domain.Feedback{}, err
	}
	return fb, nil
}

func (r *FeedbackRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *FeedbackRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *FeedbackRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
