package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tableside/tableside/internal/clock"
	"github.com/tableside/tableside/internal/domain"
)

// OrderRepository is the persistence contract for the order lifecycle.
// Create and Update persist the header and the full line set atomically;
// GetForUpdate locks the order row for the duration of the transaction.
type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetTable(ctx context.Context, tableID int64) (domain.Table, error)
	GetItem(ctx context.Context, itemID int64) (domain.Item, error)
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	GetForUpdate(ctx context.Context, id int64) (domain.Order, error)
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Order, error)
	ListByStatus(ctx context.Context, delivered, paid bool) ([]domain.Order, error)
	ListUnpaid(ctx context.Context) ([]domain.Order, error)
	SetPaid(ctx context.Context, id int64) error
}

type OrderService struct {
	repo             OrderRepository
	clock            clock.Clock
	protectPaidOnDel bool
}

type OrderServiceOption func(*OrderService)

// ProtectPaidOrders makes Delete refuse orders that were already paid.
// The default allows purging paid history.
func ProtectPaidOrders() OrderServiceOption {
	return func(s *OrderService) {
		s.protectPaidOnDel = true
	}
}

func NewOrderService(repo OrderRepository, clk clock.Clock, opts ...OrderServiceOption) *OrderService {
	svc := &OrderService{
		repo:  repo,
		clock: clk,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func validateLines(lines []domain.OrderLine) error {
	for _, line := range lines {
		if line.ItemID <= 0 || line.Quantity <= 0 {
			return domain.ErrInvalidOrderLine
		}
	}
	return nil
}

// Create opens a tab. Every requested line is rebuilt as a snapshot of the
// catalog's current name, type and price; client-submitted prices are
// ignored here.
func (s *OrderService) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.TableID <= 0 {
		return domain.Order{}, domain.ErrInvalidTableID
	}
	if len(order.Lines) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}
	if err := validateLines(order.Lines); err != nil {
		return domain.Order{}, err
	}
	if !domain.ValidDiscount(order.Discount) {
		return domain.Order{}, domain.ErrInvalidDiscount
	}

	var created domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetTable(txCtx, order.TableID); err != nil {
			return err
		}

		snapshots := make([]domain.OrderLine, 0, len(order.Lines))
		for _, line := range order.Lines {
			item, err := s.repo.GetItem(txCtx, line.ItemID)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, domain.OrderLine{
				ItemID:    item.ID,
				Name:      item.Name,
				Type:      item.Type,
				Quantity:  line.Quantity,
				UnitPrice: item.Price,
			})
		}
		order.Lines = snapshots

		if order.PlacedAt.IsZero() {
			order.PlacedAt = s.clock.Now()
		}
		order.Paid = false

		var err error
		created, err = s.repo.Create(txCtx, order)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

// Update replaces the header and the full line set of an unpaid order. Line
// prices keep the submitted value when positive and fall back to the current
// catalog price otherwise; this differs from Create on purpose and mirrors
// how tabs with manually negotiated prices were handled historically.
func (s *OrderService) Update(ctx context.Context, id int64, order domain.Order) (domain.Order, error) {
	if id <= 0 {
		return domain.Order{}, domain.ErrInvalidID
	}
	if err := validateLines(order.Lines); err != nil {
		return domain.Order{}, err
	}
	if !domain.ValidDiscount(order.Discount) {
		return domain.Order{}, domain.ErrInvalidDiscount
	}

	order.ID = id
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if existing.Paid {
			return domain.ErrOrderPaid
		}

		revalidated := make([]domain.OrderLine, 0, len(order.Lines))
		for _, line := range order.Lines {
			item, err := s.repo.GetItem(txCtx, line.ItemID)
			if err != nil {
				return err
			}
			price := item.Price
			if line.UnitPrice.IsPositive() {
				price = line.UnitPrice
			}
			revalidated = append(revalidated, domain.OrderLine{
				ItemID:    item.ID,
				Name:      item.Name,
				Type:      item.Type,
				Quantity:  line.Quantity,
				UnitPrice: price,
			})
		}
		order.Lines = revalidated

		if order.PlacedAt.IsZero() {
			order.PlacedAt = existing.PlacedAt
		}
		// The paid flag only ever flips through payment registration.
		order.Paid = existing.Paid

		return s.repo.Update(txCtx, order)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.Get(txCtx, id)
		if err != nil {
			return err
		}
		if s.protectPaidOnDel && existing.Paid {
			return domain.ErrOrderPaid
		}
		return s.repo.Delete(txCtx, id)
	})
}

// MarkPaid flips the paid flag. It is idempotent: an already-paid order is
// returned unchanged with no side effect. Payment registration invokes this
// within its own transaction.
func (s *OrderService) MarkPaid(ctx context.Context, id int64) (domain.Order, error) {
	if id <= 0 {
		return domain.Order{}, domain.ErrInvalidID
	}

	var result domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if order.Paid {
			result = order
			return nil
		}
		if err := s.repo.SetPaid(txCtx, id); err != nil {
			return err
		}
		order.Paid = true
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	if id <= 0 {
		return domain.Order{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

// ListByStatus filters open tabs: "pending" (not delivered, unpaid),
// "delivered" (delivered, unpaid) or "paid".
func (s *OrderService) ListByStatus(ctx context.Context, status string) ([]domain.Order, error) {
	switch status {
	case "pending":
		return s.repo.ListByStatus(ctx, false, false)
	case "delivered":
		return s.repo.ListByStatus(ctx, true, false)
	case "paid":
		return s.repo.ListByStatus(ctx, true, true)
	default:
		return nil, domain.ErrUnknownOrderStatus
	}
}

// ListUnpaid returns every order whose bill is still open, delivered or not.
func (s *OrderService) ListUnpaid(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListUnpaid(ctx)
}

// Totals computes the order's totals from its line snapshots; they are never
// trusted from client input.
func (s *OrderService) Totals(ctx context.Context, id int64) (before, after decimal.Decimal, err error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return order.TotalBeforeDiscount(), order.TotalAfterDiscount(), nil
}
