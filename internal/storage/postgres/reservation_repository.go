package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside/tableside/internal/domain"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetTableForUpdate locks the table row for the rest of the transaction, so
// concurrent bookings for the same table run their overlap checks one at a
// time.
func (r *ReservationRepository) GetTableForUpdate(ctx context.Context, tableID int64) (domain.Table, error) {
	const query = `SELECT id, capacity, location FROM tables WHERE id = $1 FOR UPDATE`

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

// ExistsOverlap compares windows as seconds since midnight. Adding an
// interval to a TIME value wraps past 24:00, which would hide conflicts for
// windows starting at 22:30 or later, so the arithmetic stays out of the
// TIME type.
func (r *ReservationRepository) ExistsOverlap(ctx context.Context, tableID int64, date time.Time, start time.Duration, excludeID int64) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1
    FROM reservations
    WHERE table_id = $1
      AND reservation_date = $2
      AND id <> $3
      AND EXTRACT(EPOCH FROM reservation_time) < EXTRACT(EPOCH FROM $4::time) + $5
      AND EXTRACT(EPOCH FROM reservation_time) + $5 > EXTRACT(EPOCH FROM $4::time)
)`

	seconds := int(domain.ServiceDuration.Seconds())
	var exists bool
	err := r.queryRow(ctx, query, tableID, asDate(date), excludeID, asTime(start), seconds).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const stmt = `
INSERT INTO reservations (holder_name, party_size, table_id, reservation_date, reservation_time, note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	err := r.queryRow(ctx, stmt,
		res.HolderName,
		res.PartySize,
		res.TableID,
		asDate(res.Date),
		asTime(res.Start),
		res.Note,
	).Scan(&res.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Reservation{}, domain.ErrTableNotFound
		}
		return domain.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) Get(ctx context.Context, id int64) (domain.Reservation, error) {
	const query = `
SELECT id, holder_name, party_size, table_id, reservation_date, reservation_time, note
FROM reservations
WHERE id = $1`

	res, err := scanReservation(r.queryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) Update(ctx context.Context, res domain.Reservation) error {
	const stmt = `
UPDATE reservations
SET holder_name = $2, party_size = $3, table_id = $4, reservation_date = $5, reservation_time = $6, note = $7
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		res.ID,
		res.HolderName,
		res.PartySize,
		res.TableID,
		asDate(res.Date),
		asTime(res.Start),
		res.Note,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrTableNotFound
		}
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	const stmt = `DELETE FROM reservations WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) List(ctx context.Context) ([]domain.Reservation, error) {
	const query = `
SELECT id, holder_name, party_size, table_id, reservation_date, reservation_time, note
FROM reservations
ORDER BY reservation_date ASC, reservation_time ASC, table_id ASC`
	return r.list(ctx, query)
}

func (r *ReservationRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	const query = `
SELECT id, holder_name, party_size, table_id, reservation_date, reservation_time, note
FROM reservations
WHERE reservation_date = $1
ORDER BY reservation_time ASC, table_id ASC`
	return r.list(ctx, query, asDate(date))
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return out, nil
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	var date pgtype.Date
	var start pgtype.Time
	err := row.Scan(&res.ID, &res.HolderName, &res.PartySize, &res.TableID, &date, &start, &res.Note)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.Date = domain.DateOf(date.Time)
	res.Start = time.Duration(start.Microseconds) * time.Microsecond
	return res, nil
}

func asDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: domain.DateOf(t), Valid: true}
}

func asTime(d time.Duration) pgtype.Time {
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
