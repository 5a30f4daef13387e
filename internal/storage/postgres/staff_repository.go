package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

// StaffRepository persists staff as a base row plus one payload row in the
// table matching the role kind. Phones and dependents live in child tables
// and are replaced wholesale on update.
type StaffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

func (r *StaffRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *StaffRepository) Create(ctx context.Context, st domain.Staff) (domain.Staff, error) {
	const stmt = `
INSERT INTO staff (name, tax_id, salary, hired_at, street, number, district, city, state, zip, supervisor_id, role)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`

	err := r.queryRow(ctx, stmt,
		st.Name,
		st.TaxID,
		st.Salary,
		st.HiredAt,
		st.Address.Street,
		st.Address.Number,
		st.Address.District,
		st.Address.City,
		st.Address.State,
		st.Address.Zip,
		st.SupervisorID,
		string(st.Role.Kind),
	).Scan(&st.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("create staff: %w", err)
	}

	if err := r.insertRole(ctx, st.ID, st.Role); err != nil {
		return domain.Staff{}, err
	}
	if err := r.insertChildren(ctx, st); err != nil {
		return domain.Staff{}, err
	}
	return st, nil
}

func (r *StaffRepository) Get(ctx context.Context, id int64) (domain.Staff, error) {
	const query = `
SELECT id, name, tax_id, salary, hired_at, street, number, district, city, state, zip, supervisor_id, role
FROM staff
WHERE id = $1`

	st, err := scanStaff(r.queryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Staff{}, domain.ErrStaffNotFound
		}
		return domain.Staff{}, fmt.Errorf("get staff: %w", err)
	}

	if err := r.loadRole(ctx, &st); err != nil {
		return domain.Staff{}, err
	}
	if err := r.loadChildren(ctx, &st); err != nil {
		return domain.Staff{}, err
	}
	return st, nil
}

// Update rewrites the base row and replaces the role payload and child rows.
// When the role kind changed, the stale payload row is removed first.
func (r *StaffRepository) Update(ctx context.Context, st domain.Staff, previousRole domain.RoleKind) error {
	const stmt = `
UPDATE staff
SET name = $2, tax_id = $3, salary = $4, hired_at = $5, street = $6, number = $7, district = $8,
    city = $9, state = $10, zip = $11, supervisor_id = $12, role = $13
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		st.ID,
		st.Name,
		st.TaxID,
		st.Salary,
		st.HiredAt,
		st.Address.Street,
		st.Address.Number,
		st.Address.District,
		st.Address.City,
		st.Address.State,
		st.Address.Zip,
		st.SupervisorID,
		string(st.Role.Kind),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStaffNotFound
		}
		return fmt.Errorf("update staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaffNotFound
	}

	if _, err := r.exec(ctx, roleDeleteStmt(previousRole), st.ID); err != nil {
		return fmt.Errorf("clear role payload: %w", err)
	}
	if err := r.insertRole(ctx, st.ID, st.Role); err != nil {
		return err
	}

	if _, err := r.exec(ctx, `DELETE FROM staff_phones WHERE staff_id = $1`, st.ID); err != nil {
		return fmt.Errorf("clear phones: %w", err)
	}
	if _, err := r.exec(ctx, `DELETE FROM staff_dependents WHERE staff_id = $1`, st.ID); err != nil {
		return fmt.Errorf("clear dependents: %w", err)
	}
	return r.insertChildren(ctx, st)
}

// Delete removes the staff record and everything hanging off it. A staff
// member still supervising others cannot be removed.
func (r *StaffRepository) Delete(ctx context.Context, id int64) error {
	st, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.exec(ctx, `DELETE FROM staff_phones WHERE staff_id = $1`, id); err != nil {
		return fmt.Errorf("clear phones: %w", err)
	}
	if _, err := r.exec(ctx, `DELETE FROM staff_dependents WHERE staff_id = $1`, id); err != nil {
		return fmt.Errorf("clear dependents: %w", err)
	}
	if _, err := r.exec(ctx, roleDeleteStmt(st.Role.Kind), id); err != nil {
		return fmt.Errorf("clear role payload: %w", err)
	}

	tag, err := r.exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStaffInUse
		}
		return fmt.Errorf("delete staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaffNotFound
	}
	return nil
}

func (r *StaffRepository) List(ctx context.Context) ([]domain.Staff, error) {
	const query = `
SELECT id, name, tax_id, salary, hired_at, street, number, district, city, state, zip, supervisor_id, role
FROM staff
ORDER BY name ASC, id ASC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var out []domain.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		out = append(out, st)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate staff: %w", rows.Err())
	}

	for i := range out {
		if err := r.loadRole(ctx, &out[i]); err != nil {
			return nil, err
		}
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *StaffRepository) insertRole(ctx context.Context, staffID int64, role domain.Role) error {
	var stmt string
	var args []any
	switch role.Kind {
	case domain.RoleWaiter:
		stmt = `INSERT INTO staff_waiters (staff_id, section) VALUES ($1, $2)`
		args = []any{staffID, role.Section}
	case domain.RoleCook:
		stmt = `INSERT INTO staff_cooks (staff_id, specialty) VALUES ($1, $2)`
		args = []any{staffID, role.Specialty}
	case domain.RoleBartender:
		stmt = `INSERT INTO staff_bartenders (staff_id, specialty) VALUES ($1, $2)`
		args = []any{staffID, role.Specialty}
	case domain.RoleManager:
		stmt = `INSERT INTO staff_managers (staff_id, access_level, discount_limit) VALUES ($1, $2, $3)`
		args = []any{staffID, role.AccessLevel, role.DiscountLimit}
	default:
		return domain.ErrUnknownRole
	}

	if _, err := r.exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert role payload: %w", err)
	}
	return nil
}

func roleDeleteStmt(kind domain.RoleKind) string {
	switch kind {
	case domain.RoleCook:
		return `DELETE FROM staff_cooks WHERE staff_id = $1`
	case domain.RoleBartender:
		return `DELETE FROM staff_bartenders WHERE staff_id = $1`
	case domain.RoleManager:
		return `DELETE FROM staff_managers WHERE staff_id = $1`
	default:
		return `DELETE FROM staff_waiters WHERE staff_id = $1`
	}
}

func (r *StaffRepository) loadRole(ctx context.Context, st *domain.Staff) error {
	var err error
	switch st.Role.Kind {
	case domain.RoleWaiter:
		err = r.queryRow(ctx, `SELECT section FROM staff_waiters WHERE staff_id = $1`, st.ID).
			Scan(&st.Role.Section)
	case domain.RoleCook:
		err = r.queryRow(ctx, `SELECT specialty FROM staff_cooks WHERE staff_id = $1`, st.ID).
			Scan(&st.Role.Specialty)
	case domain.RoleBartender:
		err = r.queryRow(ctx, `SELECT specialty FROM staff_bartenders WHERE staff_id = $1`, st.ID).
			Scan(&st.Role.Specialty)
	case domain.RoleManager:
		err = r.queryRow(ctx, `SELECT access_level, discount_limit FROM staff_managers WHERE staff_id = $1`, st.ID).
			Scan(&st.Role.AccessLevel, &st.Role.DiscountLimit)
	}
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("load role payload: %w", err)
	}
	return nil
}

func (r *StaffRepository) insertChildren(ctx context.Context, st domain.Staff) error {
	for _, phone := range st.Phones {
		_, err := r.exec(ctx, `INSERT INTO staff_phones (staff_id, phone) VALUES ($1, $2)`, st.ID, phone)
		if err != nil {
			return fmt.Errorf("insert phone: %w", err)
		}
	}
	for _, dep := range st.Dependents {
		_, err := r.exec(ctx,
			`INSERT INTO staff_dependents (staff_id, name, born_at, relation) VALUES ($1, $2, $3, $4)`,
			st.ID, dep.Name, dep.BornAt, dep.Relation)
		if err != nil {
			return fmt.Errorf("insert dependent: %w", err)
		}
	}
	return nil
}

func (r *StaffRepository) loadChildren(ctx context.Context, st *domain.Staff) error {
	phones, err := r.query(ctx, `SELECT phone FROM staff_phones WHERE staff_id = $1 ORDER BY phone ASC`, st.ID)
	if err != nil {
		return fmt.Errorf("load phones: %w", err)
	}
	defer phones.Close()
	for phones.Next() {
		var phone string
		if err := phones.Scan(&phone); err != nil {
			return fmt.Errorf("scan phone: %w", err)
		}
		st.Phones = append(st.Phones, phone)
	}
	if phones.Err() != nil {
		return fmt.Errorf("iterate phones: %w", phones.Err())
	}

	deps, err := r.query(ctx, `SELECT name, born_at, relation FROM staff_dependents WHERE staff_id = $1 ORDER BY name ASC`, st.ID)
	if err != nil {
		return fmt.Errorf("load dependents: %w", err)
	}
	defer deps.Close()
	for deps.Next() {
		var dep domain.Dependent
		if err := deps.Scan(&dep.Name, &dep.BornAt, &dep.Relation); err != nil {
			return fmt.Errorf("scan dependent: %w", err)
		}
		st.Dependents = append(st.Dependents, dep)
	}
	if deps.Err() != nil {
		return fmt.Errorf("iterate dependents: %w", deps.Err())
	}
	return nil
}

func scanStaff(row pgx.Row) (domain.Staff, error) {
	var st domain.Staff
	var role string
	err := row.Scan(
		&st.ID,
		&st.Name,
		&st.TaxID,
		&st.Salary,
		&st.HiredAt,
		&st.Address.Street,
		&st.Address.Number,
		&st.Address.District,
		&st.Address.City,
		&st.Address.State,
		&st.Address.Zip,
		&st.SupervisorID,
		&role,
	)
	if err != nil {
		return domain.Staff{}, err
	}
	st.Role.Kind = domain.RoleKind(role)
	return st, nil
}

func (r *StaffRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *StaffRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *StaffRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
