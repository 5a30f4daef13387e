package app

import (
	"context"
	"strings"

	"github.com/tableside/tableside/internal/clock"
	"github.com/tableside/tableside/internal/domain"
)

// PaymentRepository is the persistence contract for the ledger. CreatePayment
// maps the one-payment-per-order uniqueness violation to ErrDuplicatePayment
// so a lost race still surfaces as a conflict, not a corrupt ledger.
type PaymentRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID int64) (domain.Order, error)
	CreatePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	MarkOrderPaid(ctx context.Context, orderID int64) error
	Get(ctx context.Context, id int64) (domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID int64) (domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
}

type PaymentService struct {
	repo  PaymentRepository
	clock clock.Clock
}

func NewPaymentService(repo PaymentRepository, clk clock.Clock) *PaymentService {
	return &PaymentService{
		repo:  repo,
		clock: clk,
	}
}

// Register inserts the payment row and flips the order's paid flag as one
// atomic unit: either both land or neither does. The order row is locked
// first, so two concurrent registrations for the same order serialize and
// the loser sees the paid flag.
func (s *PaymentService) Register(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	if payment.OrderID <= 0 {
		return domain.Payment{}, domain.ErrInvalidID
	}
	if !payment.Amount.IsPositive() {
		return domain.Payment{}, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(payment.Method) == "" {
		return domain.Payment{}, domain.ErrPaymentMethodRequired
	}

	var created domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, payment.OrderID)
		if err != nil {
			return err
		}
		if order.Paid {
			return domain.ErrOrderAlreadyPaid
		}

		if payment.PaidAt.IsZero() {
			payment.PaidAt = s.clock.Now()
		}

		created, err = s.repo.CreatePayment(txCtx, payment)
		if err != nil {
			return err
		}
		return s.repo.MarkOrderPaid(txCtx, payment.OrderID)
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return created, nil
}

func (s *PaymentService) Get(ctx context.Context, id int64) (domain.Payment, error) {
	if id <= 0 {
		return domain.Payment{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *PaymentService) GetByOrderID(ctx context.Context, orderID int64) (domain.Payment, error) {
	if orderID <= 0 {
		return domain.Payment{}, domain.ErrInvalidID
	}
	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *PaymentService) List(ctx context.Context) ([]domain.Payment, error) {
	return s.repo.List(ctx)
}
