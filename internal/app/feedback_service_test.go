package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tableside/tableside/internal/clock"
	"github.com/tableside/tableside/internal/domain"
)

type fakeFeedbackRepo struct {
	orders   map[int64]domain.Order
	tables   map[int64]domain.Table
	feedback map[int64]domain.Feedback
	nextID   int64
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{
		orders:   make(map[int64]domain.Order),
		tables:   make(map[int64]domain.Table),
		feedback: make(map[int64]domain.Feedback),
		nextID:   1,
	}
}

func (f *fakeFeedbackRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeFeedbackRepo) GetOrder(_ context.Context, orderID int64) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeFeedbackRepo) GetTable(_ context.Context, tableID int64) (domain.Table, error) {
	table, ok := f.tables[tableID]
	if !ok {
		return domain.Table{}, domain.ErrTableNotFound
	}
	return table, nil
}

func (f *fakeFeedbackRepo) Create(_ context.Context, fb domain.Feedback) (domain.Feedback, error) {
	fb.ID = f.nextID
	f.nextID++
	f.feedback[fb.ID] = fb
	return fb, nil
}

func (f *fakeFeedbackRepo) Get(_ context.Context, id int64) (domain.Feedback, error) {
	fb, ok := f.feedback[id]
	if !ok {
		return domain.Feedback{}, domain.ErrFeedbackNotFound
	}
	return fb, nil
}

func (f *fakeFeedbackRepo) Update(_ context.Context, fb domain.Feedback) error {
	if _, ok := f.feedback[fb.ID]; !ok {
		return domain.ErrFeedbackNotFound
	}
	f.feedback[fb.ID] = fb
	return nil
}

func (f *fakeFeedbackRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.feedback[id]; !ok {
		return domain.ErrFeedbackNotFound
	}
	delete(f.feedback, id)
	return nil
}

func (f *fakeFeedbackRepo) List(_ context.Context) ([]domain.Feedback, error) {
	var out []domain.Feedback
	for _, fb := range f.feedback {
		out = append(out, fb)
	}
	return out, nil
}

func (f *fakeFeedbackRepo) ListByOrder(_ context.Context, orderID int64) ([]domain.Feedback, error) {
	var out []domain.Feedback
	for _, fb := range f.feedback {
		if fb.OrderID == orderID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func ratingOf(r int) *int { return &r }

func TestFeedbackService_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 23, 0, 0, 0, time.UTC)

	seeded := func() *fakeFeedbackRepo {
		repo := newFakeFeedbackRepo()
		repo.tables[3] = domain.Table{ID: 3, Capacity: 6}
		repo.orders[7] = domain.Order{
			ID:       7,
			TableID:  3,
			PlacedAt: time.Date(2025, 5, 20, 20, 30, 0, 0, time.UTC),
		}
		return repo
	}

	t.Run("accepts same-day feedback and fills the table from the order", func(t *testing.T) {
		repo := seeded()
		svc := NewFeedbackService(repo, clock.NewFixed(now))

		created, err := svc.Create(context.Background(), domain.Feedback{
			OrderID:       7,
			CustomerName:  "Ana",
			FoodRating:    ratingOf(5),
			ServiceRating: ratingOf(4),
			Comment:       "great feijoada",
		})
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.Equal(t, int64(3), created.TableID)
		require.Equal(t, now, created.CreatedAt)
	})

	t.Run("rejects feedback for an order placed on another day", func(t *testing.T) {
		repo := seeded()
		repo.orders[7] = domain.Order{
			ID:       7,
			TableID:  3,
			PlacedAt: time.Date(2025, 5, 19, 20, 30, 0, 0, time.UTC),
		}
		svc := NewFeedbackService(repo, clock.NewFixed(now))

		_, err := svc.Create(context.Background(), domain.Feedback{OrderID: 7})
		require.ErrorIs(t, err, domain.ErrFeedbackNotSameDay)
		require.Empty(t, repo.feedback)
	})

	t.Run("rejects a table that disagrees with the order", func(t *testing.T) {
		repo := seeded()
		repo.tables[4] = domain.Table{ID: 4, Capacity: 2}
		svc := NewFeedbackService(repo, clock.NewFixed(now))

		_, err := svc.Create(context.Background(), domain.Feedback{OrderID: 7, TableID: 4})
		require.ErrorIs(t, err, domain.ErrFeedbackTableMismatch)
	})

	t.Run("matching explicit table is accepted", func(t *testing.T) {
		repo := seeded()
		svc := NewFeedbackService(repo, clock.NewFixed(now))

		created, err := svc.Create(context.Background(), domain.Feedback{OrderID: 7, TableID: 3})
		require.NoError(t, err)
		require.Equal(t, int64(3), created.TableID)
	})

	t.Run("ratings outside 1..5", func(t *testing.T) {
		svc := NewFeedbackService(seeded(), clock.NewFixed(now))

		_, err := svc.Create(context.Background(), domain.Feedback{OrderID: 7, FoodRating: ratingOf(0)})
		require.ErrorIs(t, err, domain.ErrInvalidRating)

		_, err = svc.Create(context.Background(), domain.Feedback{OrderID: 7, ServiceRating: ratingOf(6)})
		require.ErrorIs(t, err, domain.ErrInvalidRating)
	})

	t.Run("omitted ratings are fine", func(t *testing.T) {
		svc := NewFeedbackService(seeded(), clock.NewFixed(now))

		created, err := svc.Create(context.Background(), domain.Feedback{OrderID: 7, Comment: "no stars, just vibes"})
		require.NoError(t, err)
		require.Nil(t, created.FoodRating)
		require.Nil(t, created.ServiceRating)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc := NewFeedbackService(seeded(), clock.NewFixed(now))
		_, err := svc.Create(context.Background(), domain.Feedback{OrderID: 99})
		require.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestFeedbackService_Update(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 23, 0, 0, 0, time.UTC)
	repo := newFakeFeedbackRepo()
	repo.tables[3] = domain.Table{ID: 3}
	repo.orders[7] = domain.Order{ID: 7, TableID: 3, PlacedAt: now}
	svc := NewFeedbackService(repo, clock.NewFixed(now))

	created, err := svc.Create(context.Background(), domain.Feedback{
		OrderID:    7,
		FoodRating: ratingOf(3),
		Comment:    "ok",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, domain.Feedback{
		OrderID:    999, // binding must not move
		TableID:    999,
		FoodRating: ratingOf(5),
		Comment:    "warmed up to it",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), updated.OrderID)
	require.Equal(t, int64(3), updated.TableID)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, 5, *updated.FoodRating)
	require.Equal(t, "warmed up to it", updated.Comment)

	_, err = svc.Update(context.Background(), created.ID, domain.Feedback{FoodRating: ratingOf(9)})
	require.ErrorIs(t, err, domain.ErrInvalidRating)

	_, err = svc.Update(context.Background(), 42, domain.Feedback{})
	require.ErrorIs(t, err, domain.ErrFeedbackNotFound)
}

func TestFeedbackService_DeleteAndList(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 23, 0, 0, 0, time.UTC)
	repo := newFakeFeedbackRepo()
	repo.tables[3] = domain.Table{ID: 3}
	repo.orders[7] = domain.Order{ID: 7, TableID: 3, PlacedAt: now}
	svc := NewFeedbackService(repo, clock.NewFixed(now))

	first, err := svc.Create(context.Background(), domain.Feedback{OrderID: 7})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), domain.Feedback{OrderID: 7})
	require.NoError(t, err)

	byOrder, err := svc.ListByOrder(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, byOrder, 2)

	require.NoError(t, svc.Delete(context.Background(), first.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), first.ID), domain.ErrFeedbackNotFound)

	remaining, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, second.ID, remaining[0].ID)
}
