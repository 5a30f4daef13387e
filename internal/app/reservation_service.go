package app

import (
	"context"
	"strings"
	"time"

	"github.com/tableside/tableside/internal/clock"
	"github.com/tableside/tableside/internal/domain"
)

// ReservationRepository is the persistence contract for the scheduler. The
// table row lock taken by GetTableForUpdate serializes conflict checks for
// the same table, so two overlapping creates cannot both pass before either
// commits.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetTableForUpdate(ctx context.Context, tableID int64) (domain.Table, error)
	ExistsOverlap(ctx context.Context, tableID int64, date time.Time, start time.Duration, excludeID int64) (bool, error)
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	Get(ctx context.Context, id int64) (domain.Reservation, error)
	Update(ctx context.Context, res domain.Reservation) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Reservation, error)
	ListByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error)
}

type ReservationService struct {
	repo  ReservationRepository
	clock clock.Clock
}

func NewReservationService(repo ReservationRepository, clk clock.Clock) *ReservationService {
	return &ReservationService{
		repo:  repo,
		clock: clk,
	}
}

func (s *ReservationService) validate(res domain.Reservation) error {
	if strings.TrimSpace(res.HolderName) == "" {
		return domain.ErrHolderNameRequired
	}
	if res.PartySize <= 0 {
		return domain.ErrInvalidPartySize
	}
	if res.TableID <= 0 {
		return domain.ErrInvalidTableID
	}
	if res.Date.IsZero() {
		return domain.ErrReservationDateRequired
	}
	if domain.DateOf(res.Date).Before(domain.DateOf(s.clock.Now())) {
		return domain.ErrPastReservationDate
	}
	if res.Start < 0 || res.Start >= 24*time.Hour {
		return domain.ErrInvalidReservationTime
	}
	return nil
}

// Create books a table after checking capacity and the 90-minute service
// window against every sibling reservation on the same table and date.
func (s *ReservationService) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	if err := s.validate(res); err != nil {
		return domain.Reservation{}, err
	}

	var created domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		table, err := s.repo.GetTableForUpdate(txCtx, res.TableID)
		if err != nil {
			return err
		}
		if res.PartySize > table.Capacity {
			return domain.ErrTableCapacityExceeded
		}

		conflict, err := s.repo.ExistsOverlap(txCtx, res.TableID, res.Date, res.Start, 0)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrReservationConflict
		}

		created, err = s.repo.Create(txCtx, res)
		return err
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return created, nil
}

// Update replaces a reservation wholesale. Capacity is re-validated only
// when the table or party size changed; the conflict check always runs,
// excluding the reservation's own id.
func (s *ReservationService) Update(ctx context.Context, id int64, res domain.Reservation) (domain.Reservation, error) {
	if id <= 0 {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	if err := s.validate(res); err != nil {
		return domain.Reservation{}, err
	}

	res.ID = id
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.Get(txCtx, id)
		if err != nil {
			return err
		}

		// The lock is taken unconditionally so concurrent writers against the
		// same table serialize on its row before the overlap check.
		table, err := s.repo.GetTableForUpdate(txCtx, res.TableID)
		if err != nil {
			return err
		}
		if existing.TableID != res.TableID || existing.PartySize != res.PartySize {
			if res.PartySize > table.Capacity {
				return domain.ErrTableCapacityExceeded
			}
		}

		conflict, err := s.repo.ExistsOverlap(txCtx, res.TableID, res.Date, res.Start, id)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrReservationConflict
		}

		return s.repo.Update(txCtx, res)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func (s *ReservationService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.Get(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}

func (s *ReservationService) Get(ctx context.Context, id int64) (domain.Reservation, error) {
	if id <= 0 {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *ReservationService) List(ctx context.Context) ([]domain.Reservation, error) {
	return s.repo.List(ctx)
}

func (s *ReservationService) ListByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	if date.IsZero() {
		return nil, domain.ErrReservationDateRequired
	}
	return s.repo.ListByDate(ctx, date)
}
