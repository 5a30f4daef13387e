package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

type TableRepository struct {
	pool *pgxpool.Pool
}

func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{pool: pool}
}

func (r *TableRepository) Create(ctx context.Context, table domain.Table) (domain.Table, error) {
	const stmt = `INSERT INTO tables (capacity, location) VALUES ($1, $2) RETURNING id`

	err := r.pool.QueryRow(ctx, stmt, table.Capacity, table.Location).Scan(&table.ID)
	if err != nil {
		return domain.Table{}, fmt.Errorf("create table: %w", err)
	}
	return table, nil
}

func (r *TableRepository) Get(ctx context.Context, id int64) (domain.Table, error) {
	const query = `SELECT id, capacity, location FROM tables WHERE id = $1`

	var t domain.Table
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Capacity, &t.Location)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Table{}, domain.ErrTableNotFound
		}
		return domain.Table{}, fmt.Errorf("get table: %w", err)
	}
	return t, nil
}

func (r *TableRepository) Update(ctx context.Context, table domain.Table) error {
	const stmt = `UPDATE tables SET capacity = $2, location = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt, table.ID, table.Capacity, table.Location)
	if err != nil {
		return fmt.Errorf("update table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTableNotFound
	}
	return nil
}

// Delete refuses tables still referenced by reservations or orders.
func (r *TableRepository) Delete(ctx context.Context, id int64) error {
	const stmt = `DELETE FROM tables WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrTableInUse
		}
		return fmt.Errorf("delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTableNotFound
	}
	return nil
}

func (r *TableRepository) List(ctx context.Context) ([]domain.Table, error) {
	const query = `SELECT id, capacity, location FROM tables ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.Capacity, &t.Location); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tables: %w", rows.Err())
	}
	return tables, nil
}
