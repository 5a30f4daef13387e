package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) GetTable(ctx context.Context, tableID int64) (domain.Table, error) {
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

func (r *OrderRepository) GetItem(ctx context.Context, itemID int64) (domain.Item, error) {
	const query = `SELECT id, name, type, price FROM items WHERE id = $1`

	var it domain.Item
	err := r.queryRow(ctx, query, itemID).Scan(&it.ID, &it.Name, &it.Type, &it.Price)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Create writes the header and the full line set. Callers run it inside
// WithTx so a failed line insert rolls the header back too.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	const stmt = `
INSERT INTO orders (waiter_id, manager_id, table_id, placed_at, delivered, paid, discount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	err := r.queryRow(ctx, stmt,
		order.WaiterID,
		order.ManagerID,
		order.TableID,
		order.PlacedAt,
		order.Delivered,
		order.Paid,
		order.Discount,
	).Scan(&order.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Order{}, domain.ErrTableNotFound
		}
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := r.insertLines(ctx, order.ID, order.Lines); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate locks the order row, serializing edits and payment
// registration for the same order.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id int64) (domain.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepository) get(ctx context.Context, id int64, forUpdate bool) (domain.Order, error) {
	query := `
SELECT id, waiter_id, manager_id, table_id, placed_at, delivered, paid, discount
FROM orders
WHERE id = $1`
	if forUpdate {
		query += `
FOR UPDATE`
	}

	var o domain.Order
	err := r.queryRow(ctx, query, id).
		Scan(&o.ID, &o.WaiterID, &o.ManagerID, &o.TableID, &o.PlacedAt, &o.Delivered, &o.Paid, &o.Discount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	lines, err := r.loadLines(ctx, []int64{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

// Update rewrites the header and replaces the line set wholesale. Line
// snapshots have no identity of their own, so delete-and-reinsert is
// simpler than diffing.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	const stmt = `
UPDATE orders
SET waiter_id = $2, manager_id = $3, table_id = $4, placed_at = $5, delivered = $6, paid = $7, discount = $8
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		order.ID,
		order.WaiterID,
		order.ManagerID,
		order.TableID,
		order.PlacedAt,
		order.Delivered,
		order.Paid,
		order.Discount,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrTableNotFound
		}
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	if _, err := r.exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("clear order lines: %w", err)
	}
	return r.insertLines(ctx, order.ID, order.Lines)
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("clear order lines: %w", err)
	}

	tag, err := r.exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	const query = `
SELECT id, waiter_id, manager_id, table_id, placed_at, delivered, paid, discount
FROM orders
ORDER BY placed_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, delivered, paid bool) ([]domain.Order, error) {
	const query = `
SELECT id, waiter_id, manager_id, table_id, placed_at, delivered, paid, discount
FROM orders
WHERE delivered = $1 AND paid = $2
ORDER BY placed_at ASC, id ASC`
	return r.list(ctx, query, delivered, paid)
}

func (r *OrderRepository) ListUnpaid(ctx context.Context) ([]domain.Order, error) {
	const query = `
SELECT id, waiter_id, manager_id, table_id, placed_at, delivered, paid, discount
FROM orders
WHERE paid = FALSE
ORDER BY placed_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *OrderRepository) SetPaid(ctx context.Context, id int64) error {
	const stmt = `UPDATE orders SET paid = TRUE WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("set order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []int64
	for rows.Next() {
		var o domain.Order
		err := rows.Scan(&o.ID, &o.WaiterID, &o.ManagerID, &o.TableID, &o.PlacedAt, &o.Delivered, &o.Paid, &o.Discount)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orders: %w", rows.Err())
	}
	if len(orders) == 0 {
		return nil, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *OrderRepository) insertLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	const stmt = `
INSERT INTO order_lines (order_id, item_id, item_name, item_type, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)`

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(stmt, orderID, line.ItemID, line.Name, line.Type, line.Quantity, line.UnitPrice)
	}

	var results pgx.BatchResults
	if tx := txFromContext(ctx); tx != nil {
		results = tx.SendBatch(ctx, batch)
	} else {
		results = r.pool.SendBatch(ctx, batch)
	}
	defer results.Close()

	for range lines {
		if _, err := results.Exec(); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrItemNotFound
			}
			if isUniqueViolation(err) {
				return domain.ErrInvalidOrderLine
			}
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderLine, error) {
	const query = `
SELECT order_id, item_id, item_name, item_type, quantity, unit_price
FROM order_lines
WHERE order_id = ANY($1)
ORDER BY order_id ASC, item_id ASC`

	rows, err := r.query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.OrderLine)
	for rows.Next() {
		var orderID int64
		var line domain.OrderLine
		err := rows.Scan(&orderID, &line.ItemID, &line.Name, &line.Type, &line.Quantity, &line.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		out[orderID] = append(out[orderID], line)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order lines: %w", rows.Err())
	}
	return out, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
