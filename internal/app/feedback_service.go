package app

import (
	"context"

	"github.com/tableside/tableside/internal/clock"
	"github.com/tableside/tableside/internal/domain"
)

// FeedbackRepository is the persistence contract for customer feedback.
type FeedbackRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrder(ctx context.Context, orderID int64) (domain.Order, error)
	GetTable(ctx context.Context, tableID int64) (domain.Table, error)
	Create(ctx context.Context, fb domain.Feedback) (domain.Feedback, error)
	Get(ctx context.Context, id int64) (domain.Feedback, error)
	Update(ctx context.Context, fb domain.Feedback) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Feedback, error)
	ListByOrder(ctx context.Context, orderID int64) ([]domain.Feedback, error)
}

type FeedbackService struct {
	repo  FeedbackRepository
	clock clock.Clock
}

func NewFeedbackService(repo FeedbackRepository, clk clock.Clock) *FeedbackService {
	return &FeedbackService{
		repo:  repo,
		clock: clk,
	}
}

func validateRatings(fb domain.Feedback) error {
	if !domain.ValidRating(fb.FoodRating) || !domain.ValidRating(fb.ServiceRating) {
		return domain.ErrInvalidRating
	}
	return nil
}

// Create accepts feedback only for orders placed today. The table is taken
// from the order when not submitted; a submitted table that disagrees with
// the order's table is rejected.
func (s *FeedbackService) Create(ctx context.Context, fb domain.Feedback) (domain.Feedback, error) {
	if fb.OrderID <= 0 {
		return domain.Feedback{}, domain.ErrInvalidID
	}
	if err := validateRatings(fb); err != nil {
		return domain.Feedback{}, err
	}

	now := s.clock.Now()
	var created domain.Feedback
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrder(txCtx, fb.OrderID)
		if err != nil {
			return err
		}
		if !domain.SameDate(order.PlacedAt, now) {
			return domain.ErrFeedbackNotSameDay
		}

		if fb.TableID == 0 {
			fb.TableID = order.TableID
		} else if fb.TableID != order.TableID {
			return domain.ErrFeedbackTableMismatch
		}
		if _, err := s.repo.GetTable(txCtx, fb.TableID); err != nil {
			return err
		}

		if fb.CreatedAt.IsZero() {
			fb.CreatedAt = now
		}
		created, err = s.repo.Create(txCtx, fb)
		return err
	})
	if err != nil {
		return domain.Feedback{}, err
	}
	return created, nil
}

func (s *FeedbackService) Update(ctx context.Context, id int64, fb domain.Feedback) (domain.Feedback, error) {
	if id <= 0 {
		return domain.Feedback{}, domain.ErrInvalidID
	}
	if err := validateRatings(fb); err != nil {
		return domain.Feedback{}, err
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.Get(txCtx, id)
		if err != nil {
			return err
		}
		// Only the review content is editable; the order/table binding and
		// timestamp stay as recorded.
		existing.CustomerName = fb.CustomerName
		existing.FoodRating = fb.FoodRating
		existing.ServiceRating = fb.ServiceRating
		existing.Comment = fb.Comment
		fb = existing
		return s.repo.Update(txCtx, existing)
	})
	if err != nil {
		return domain.Feedback{}, err
	}
	return fb, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id int64) error {
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

func (s *FeedbackService) Get(ctx context.Context, id int64) (domain.Feedback, error) {
	if id <= 0 {
		return domain.Feedback{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *FeedbackService) List(ctx context.Context) ([]domain.Feedback, error) {
	return s.repo.List(ctx)
}

func (s *FeedbackService) ListByOrder(ctx context.Context, orderID int64) ([]domain.Feedback, error) {
	if orderID <= 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListByOrder(ctx, orderID)
}
