package app

import (
	"context"

	"github.com/tableside/tableside/internal/clock"
	"github.com/tableside/tableside/internal/domain"
)

// AuthorizationRepository is the persistence contract for manager sign-offs.
type AuthorizationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrder(ctx context.Context, orderID int64) (domain.Order, error)
	GetStaff(ctx context.Context, staffID int64) (domain.Staff, error)
	Create(ctx context.Context, auth domain.Authorization) (domain.Authorization, error)
	Get(ctx context.Context, id int64) (domain.Authorization, error)
	Update(ctx context.Context, auth domain.Authorization) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Authorization, error)
	ListByOrder(ctx context.Context, orderID int64) ([]domain.Authorization, error)
	ListByManager(ctx context.Context, managerID int64) ([]domain.Authorization, error)
}

type AuthorizationService struct {
	repo  AuthorizationRepository
	clock clock.Clock
}

func NewAuthorizationService(repo AuthorizationRepository, clk clock.Clock) *AuthorizationService {
	return &AuthorizationService{
		repo:  repo,
		clock: clk,
	}
}

func (s *AuthorizationService) requireManager(ctx context.Context, staffID int64) error {
	staff, err := s.repo.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if staff.Role.Kind != domain.RoleManager {
		return domain.ErrStaffNotManager
	}
	return nil
}

// Create records a sign-off. The order must exist, the signing staff member
// must hold the manager role, and GrantedAt defaults to the current time.
func (s *AuthorizationService) Create(ctx context.Context, auth domain.Authorization) (domain.Authorization, error) {
	if auth.OrderID <= 0 || auth.ManagerID <= 0 {
		return domain.Authorization{}, domain.ErrInvalidID
	}

	var created domain.Authorization
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetOrder(txCtx, auth.OrderID); err != nil {
			return err
		}
		if err := s.requireManager(txCtx, auth.ManagerID); err != nil {
			return err
		}

		if auth.GrantedAt.IsZero() {
			auth.GrantedAt = s.clock.Now()
		}
		var err error
		created, err = s.repo.Create(txCtx, auth)
		return err
	})
	if err != nil {
		return domain.Authorization{}, err
	}
	return created, nil
}

// Update re-checks the order and manager bindings only when they differ from
// the stored record.
func (s *AuthorizationService) Update(ctx context.Context, id int64, auth domain.Authorization) (domain.Authorization, error) {
	if id <= 0 || auth.OrderID <= 0 || auth.ManagerID <= 0 {
		return domain.Authorization{}, domain.ErrInvalidID
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.Get(txCtx, id)
		if err != nil {
			return err
		}
		if auth.OrderID != existing.OrderID {
			if _, err := s.repo.GetOrder(txCtx, auth.OrderID); err != nil {
				return err
			}
		}
		if auth.ManagerID != existing.ManagerID {
			if err := s.requireManager(txCtx, auth.ManagerID); err != nil {
				return err
			}
		}

		auth.ID = id
		if auth.GrantedAt.IsZero() {
			auth.GrantedAt = existing.GrantedAt
		}
		return s.repo.Update(txCtx, auth)
	})
	if err != nil {
		return domain.Authorization{}, err
	}
	return auth, nil
}

func (s *AuthorizationService) Delete(ctx context.Context, id int64) error {
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

func (s *AuthorizationService) Get(ctx context.Context, id int64) (domain.Authorization, error) {
	if id <= 0 {
		return domain.Authorization{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *AuthorizationService) List(ctx context.Context) ([]domain.Authorization, error) {
	return s.repo.List(ctx)
}

func (s *AuthorizationService) ListByOrder(ctx context.Context, orderID int64) ([]domain.Authorization, error) {
	if orderID <= 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *AuthorizationService) ListByManager(ctx context.Context, managerID int64) ([]domain.Authorization, error) {
	if managerID <= 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListByManager(ctx, managerID)
}
