package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tableside/tableside/internal/clock"
	"github.com/tableside/tableside/internal/domain"
)

func at(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

type fakeReservationRepo struct {
	tables       map[int64]domain.Table
	reservations map[int64]domain.Reservation
	nextID       int64
}

func newFakeReservationRepo(tables ...domain.Table) *fakeReservationRepo {
	repo := &fakeReservationRepo{
		tables:       make(map[int64]domain.Table),
		reservations: make(map[int64]domain.Reservation),
		nextID:       1,
	}
	for _, table := range tables {
		repo.tables[table.ID] = table
	}
	return repo
}

func (f *fakeReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeReservationRepo) GetTableForUpdate(_ context.Context, tableID int64) (domain.Table, error) {
	table, ok := f.tables[tableID]
	if !ok {
		return domain.Table{}, domain.ErrTableNotFound
	}
	return table, nil
}

func (f *fakeReservationRepo) ExistsOverlap(_ context.Context, tableID int64, date time.Time, start time.Duration, excludeID int64) (bool, error) {
	for _, r := range f.reservations {
		if r.TableID != tableID || !domain.SameDate(r.Date, date) || r.ID == excludeID {
			continue
		}
		if domain.WindowsOverlap(r.Start, start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReservationRepo) Create(_ context.Context, res domain.Reservation) (domain.Reservation, error) {
	res.ID = f.nextID
	f.nextID++
	f.reservations[res.ID] = res
	return res, nil
}

func (f *fakeReservationRepo) Get(_ context.Context, id int64) (domain.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeReservationRepo) Update(_ context.Context, res domain.Reservation) error {
	if _, ok := f.reservations[res.ID]; !ok {
		return domain.ErrReservationNotFound
	}
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.reservations[id]; !ok {
		return domain.ErrReservationNotFound
	}
	delete(f.reservations, id)
	return nil
}

func (f *fakeReservationRepo) List(_ context.Context) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReservationRepo) ListByDate(_ context.Context, date time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if domain.SameDate(r.Date, date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestReservationService_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	base := func() domain.Reservation {
		return domain.Reservation{
			HolderName: "Marina Costa",
			PartySize:  4,
			TableID:    5,
			Date:       date,
			Start:      at(19, 0),
		}
	}

	t.Run("books a free table", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))

		created, err := svc.Create(context.Background(), base())
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.Len(t, repo.reservations, 1)
	})

	t.Run("overlapping window on the same table conflicts", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.Create(context.Background(), base())
		require.NoError(t, err)

		second := base()
		second.Start = at(19, 30)
		_, err = svc.Create(context.Background(), second)
		require.ErrorIs(t, err, domain.ErrReservationConflict)
		require.Len(t, repo.reservations, 1, "conflicting reservation must not persist")

		third := base()
		third.Start = at(21, 0)
		_, err = svc.Create(context.Background(), third)
		require.NoError(t, err, "21:00 does not overlap 19:00-20:30")
		require.Len(t, repo.reservations, 2)
	})

	t.Run("same windows on different tables do not conflict", func(t *testing.T) {
		repo := newFakeReservationRepo(
			domain.Table{ID: 5, Capacity: 4},
			domain.Table{ID: 6, Capacity: 4},
		)
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.Create(context.Background(), base())
		require.NoError(t, err)

		other := base()
		other.TableID = 6
		_, err = svc.Create(context.Background(), other)
		require.NoError(t, err)
	})

	t.Run("party larger than capacity is rejected and persists nothing", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res := base()
		res.PartySize = 5
		_, err := svc.Create(context.Background(), res)
		require.ErrorIs(t, err, domain.ErrTableCapacityExceeded)
		require.Empty(t, repo.reservations)
	})

	t.Run("missing table", func(t *testing.T) {
		repo := newFakeReservationRepo()
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.Create(context.Background(), base())
		require.ErrorIs(t, err, domain.ErrTableNotFound)
	})

	t.Run("validation failures before any repository access", func(t *testing.T) {
		svc := NewReservationService(newFakeReservationRepo(), clock.NewFixed(now))
		ctx := context.Background()

		res := base()
		res.HolderName = "   "
		_, err := svc.Create(ctx, res)
		require.ErrorIs(t, err, domain.ErrHolderNameRequired)

		res = base()
		res.PartySize = 0
		_, err = svc.Create(ctx, res)
		require.ErrorIs(t, err, domain.ErrInvalidPartySize)

		res = base()
		res.Date = time.Date(2025, 5, 19, 0, 0, 0, 0, time.UTC)
		_, err = svc.Create(ctx, res)
		require.ErrorIs(t, err, domain.ErrPastReservationDate)

		res = base()
		res.Start = 25 * time.Hour
		_, err = svc.Create(ctx, res)
		require.ErrorIs(t, err, domain.ErrInvalidReservationTime)
	})

	t.Run("today is not in the past", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res := base()
		res.Date = time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
		_, err := svc.Create(context.Background(), res)
		require.NoError(t, err)
	})
}

func TestReservationService_Update(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seed := func(repo *fakeReservationRepo, start time.Duration) domain.Reservation {
		res, _ := repo.Create(context.Background(), domain.Reservation{
			HolderName: "Marina Costa",
			PartySize:  4,
			TableID:    5,
			Date:       date,
			Start:      start,
		})
		return res
	}

	t.Run("moving within its own window succeeds", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))
		res := seed(repo, at(19, 0))

		res.Start = at(19, 30)
		updated, err := svc.Update(context.Background(), res.ID, res)
		require.NoError(t, err, "the record's own window must be excluded from the conflict check")
		require.Equal(t, at(19, 30), updated.Start)
	})

	t.Run("moving onto a sibling window conflicts", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))
		seed(repo, at(19, 0))
		res := seed(repo, at(21, 0))

		res.Start = at(20, 0)
		_, err := svc.Update(context.Background(), res.ID, res)
		require.ErrorIs(t, err, domain.ErrReservationConflict)

		stored, err := repo.Get(context.Background(), res.ID)
		require.NoError(t, err)
		require.Equal(t, at(21, 0), stored.Start, "failed update must not persist")
	})

	t.Run("capacity re-checked when party size grows", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))
		res := seed(repo, at(19, 0))

		res.PartySize = 6
		_, err := svc.Update(context.Background(), res.ID, res)
		require.ErrorIs(t, err, domain.ErrTableCapacityExceeded)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.Update(context.Background(), 99, domain.Reservation{
			HolderName: "Marina Costa",
			PartySize:  2,
			TableID:    5,
			Date:       date,
			Start:      at(19, 0),
		})
		require.ErrorIs(t, err, domain.ErrReservationNotFound)
	})
}

func TestReservationService_DeleteAndList(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	repo := newFakeReservationRepo(domain.Table{ID: 5, Capacity: 4})
	svc := NewReservationService(repo, clock.NewFixed(now))

	created, err := svc.Create(context.Background(), domain.Reservation{
		HolderName: "Marina Costa",
		PartySize:  2,
		TableID:    5,
		Date:       date,
		Start:      at(19, 0),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.Reservation{
		HolderName: "Rui Barbosa",
		PartySize:  4,
		TableID:    5,
		Date:       date.AddDate(0, 0, 2),
		Start:      at(20, 0),
	})
	require.NoError(t, err)

	listed, err := svc.ListByDate(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	otherDay, err := svc.ListByDate(context.Background(), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Empty(t, otherDay)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), created.ID), domain.ErrReservationNotFound)
}
