package app

import (
	"context"
	"strings"

	"github.com/tableside/tableside/internal/domain"
)

// StaffRepository persists the shared base record plus the role payload
// selected by the variant tag. CreateStaff and UpdateStaff write the base
// row, the role row and the child rows (phones, dependents) in one
// transaction; a role change removes the stale payload row.
type StaffRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, st domain.Staff) (domain.Staff, error)
	Get(ctx context.Context, id int64) (domain.Staff, error)
	Update(ctx context.Context, st domain.Staff, previousRole domain.RoleKind) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Staff, error)
}

type StaffService struct {
	repo StaffRepository
}

func NewStaffService(repo StaffRepository) *StaffService {
	return &StaffService{repo: repo}
}

func validateStaff(st domain.Staff) error {
	if strings.TrimSpace(st.Name) == "" {
		return domain.ErrStaffNameRequired
	}
	if !domain.KnownRole(st.Role.Kind) {
		return domain.ErrUnknownRole
	}
	if st.Salary.IsNegative() {
		return domain.ErrNegativeSalary
	}
	if st.Role.Kind == domain.RoleManager && !domain.ValidDiscount(st.Role.DiscountLimit) {
		return domain.ErrInvalidDiscountLimit
	}
	return nil
}

func (s *StaffService) Create(ctx context.Context, st domain.Staff) (domain.Staff, error) {
	if err := validateStaff(st); err != nil {
		return domain.Staff{}, err
	}

	var created domain.Staff
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, st)
		return err
	})
	if err != nil {
		return domain.Staff{}, err
	}
	return created, nil
}

func (s *StaffService) Update(ctx context.Context, id int64, st domain.Staff) (domain.Staff, error) {
	if id <= 0 {
		return domain.Staff{}, domain.ErrInvalidID
	}
	if err := validateStaff(st); err != nil {
		return domain.Staff{}, err
	}

	st.ID = id
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.Get(txCtx, id)
		if err != nil {
			return err
		}
		return s.repo.Update(txCtx, st, existing.Role.Kind)
	})
	if err != nil {
		return domain.Staff{}, err
	}
	return st, nil
}

func (s *StaffService) Delete(ctx context.Context, id int64) error {
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

func (s *StaffService) Get(ctx context.Context, id int64) (domain.Staff, error) {
	if id <= 0 {
		return domain.Staff{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *StaffService) List(ctx context.Context) ([]domain.Staff, error) {
	return s.repo.List(ctx)
}
