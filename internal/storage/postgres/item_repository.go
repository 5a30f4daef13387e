package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	const stmt = `INSERT INTO items (name, type, price) VALUES ($1, $2, $3) RETURNING id`

	err := r.pool.QueryRow(ctx, stmt, item.Name, item.Type, item.Price).Scan(&item.ID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) Get(ctx context.Context, id int64) (domain.Item, error) {
	const query = `SELECT id, name, type, price FROM items WHERE id = $1`

	var it domain.Item
	err := r.pool.QueryRow(ctx, query, id).Scan(&it.ID, &it.Name, &it.Type, &it.Price)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Update changes the menu price going forward only; existing order lines
// keep their snapshots.
func (r *ItemRepository) Update(ctx context.Context, item domain.Item) error {
	const stmt = `UPDATE items SET name = $2, type = $3, price = $4 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt, item.ID, item.Name, item.Type, item.Price)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Delete refuses items still referenced by order lines.
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	const stmt = `DELETE FROM items WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrItemInUse
		}
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) List(ctx context.Context) ([]domain.Item, error) {
	const query = `SELECT id, name, type, price FROM items ORDER BY name ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Type, &it.Price); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate items: %w", rows.Err())
	}
	return items, nil
}
