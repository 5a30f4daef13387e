package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

type AuthorizationRepository struct {
	pool *pgxpool.Pool
}

func NewAuthorizationRepository(pool *pgxpool.Pool) *AuthorizationRepository {
	return &AuthorizationRepository{pool: pool}
}

func (r *AuthorizationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *AuthorizationRepository) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
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

// GetStaff loads the base row only; the manager check needs the role kind,
// not the role payload or the children.
func (r *AuthorizationRepository) GetStaff(ctx context.Context, staffID int64) (domain.Staff, error) {
	const query = `SELECT id, name, role FROM staff WHERE id = $1`

	var member domain.Staff
	err := r.queryRow(ctx, query, staffID).Scan(&member.ID, &member.Name, &member.Role.Kind)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("get staff: %w", err)
	}
	return member, nil
}

func (r *AuthorizationRepository) Create(ctx context.Context, auth domain.Authorization) (domain.Authorization, error) {
	const stmt = `
INSERT INTO authorizations (order_id, manager_id, granted_at, note)
VALUES ($1, $2, $3, $4)
RETURNING id`

	err := r.queryRow(ctx, stmt, auth.OrderID, auth.ManagerID, auth.GrantedAt, auth.Note).Scan(&auth.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Authorization{}, domain.ErrOrderNotFound
		}
		return domain.Authorization{}, fmt.Errorf("create authorization: %w", err)
	}
	return auth, nil
}

func (r *AuthorizationRepository) Get(ctx context.Context, id int64) (domain.Authorization, error) {
	const query = `
SELECT id, order_id, manager_id, granted_at, note
FROM authorizations
WHERE id = $1`

	auth, err := scanAuthorization(r.queryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Authorization{}, domain.ErrAuthorizationNotFound
		}
		return domain.Authorization{}, fmt.Errorf("get authorization: %w", err)
	}
	return auth, nil
}

func (r *AuthorizationRepository) Update(ctx context.Context, auth domain.Authorization) error {
	const stmt = `
UPDATE authorizations
SET order_id = $2, manager_id = $3, granted_at = $4, note = $5
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, auth.ID, auth.OrderID, auth.ManagerID, auth.GrantedAt, auth.Note)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("update authorization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuthorizationNotFound
	}
	return nil
}

func (r *AuthorizationRepository) Delete(ctx context.Context, id int64) error {
	const stmt = `DELETE FROM authorizations WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete authorization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuthorizationNotFound
	}
	return nil
}

func (r *AuthorizationRepository) List(ctx context.Context) ([]domain.Authorization, error) {
	const query = `
SELECT id, order_id, manager_id, granted_at, note
FROM authorizations
ORDER BY granted_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *AuthorizationRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Authorization, error) {
	const query = `
SELECT id, order_id, manager_id, granted_at, note
FROM authorizations
WHERE order_id = $1
ORDER BY granted_at ASC, id ASC`
	return r.list(ctx, query, orderID)
}

func (r *AuthorizationRepository) ListByManager(ctx context.Context, managerID int64) ([]domain.Authorization, error) {
	const query = `
SELECT id, order_id, manager_id, granted_at, note
FROM authorizations
WHERE manager_id = $1
ORDER BY granted_at ASC, id ASC`
	return r.list(ctx, query, managerID)
}

func (r *AuthorizationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Authorization, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list authorizations: %w", err)
	}
	defer rows.Close()

	var out []domain.Authorization
	for rows.Next() {
		auth, err := scanAuthorization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan authorization: %w", err)
		}
		out = append(out, auth)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate authorizations: %w", rows.Err())
	}
	return out, nil
}

func scanAuthorization(row pgx.Row) (domain.Authorization, error) {
	var auth domain.Authorization
	err := row.Scan(&auth.ID, &auth.OrderID, &auth.ManagerID, &auth.GrantedAt, &auth.Note)
	if err != nil {
		return domain.Authorization{}, err
	}
	return auth, nil
}

func (r *AuthorizationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AuthorizationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *AuthorizationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
