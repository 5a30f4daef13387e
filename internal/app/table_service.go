package app

import (
	"context"
	"strings"

	"github.com/tableside/tableside/internal/domain"
)

// TableRepository is the persistence contract for the table registry.
// Delete maps foreign-key violations to ErrTableInUse.
type TableRepository interface {
	Create(ctx context.Context, table domain.Table) (domain.Table, error)
	Get(ctx context.Context, id int64) (domain.Table, error)
	Update(ctx context.Context, table domain.Table) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Table, error)
}

type TableService struct {
	repo TableRepository
}

func NewTableService(repo TableRepository) *TableService {
	return &TableService{repo: repo}
}

func validateTable(table domain.Table) error {
	if table.Capacity <= 0 {
		return domain.ErrInvalidCapacity
	}
	if strings.TrimSpace(table.Location) == "" {
		return domain.ErrLocationRequired
	}
	return nil
}

func (s *TableService) Create(ctx context.Context, table domain.Table) (domain.Table, error) {
	if err := validateTable(table); err != nil {
		return domain.Table{}, err
	}
	return s.repo.Create(ctx, table)
}

func (s *TableService) Get(ctx context.Context, id int64) (domain.Table, error) {
	if id <= 0 {
		return domain.Table{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *TableService) Update(ctx context.Context, id int64, table domain.Table) (domain.Table, error) {
	if id <= 0 {
		return domain.Table{}, domain.ErrInvalidID
	}
	if err := validateTable(table); err != nil {
		return domain.Table{}, err
	}
	table.ID = id
	if _, err := s.repo.Get(ctx, id); err != nil {
		return domain.Table{}, err
	}
	if err := s.repo.Update(ctx, table); err != nil {
		return domain.Table{}, err
	}
	return table, nil
}

func (s *TableService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TableService) List(ctx context.Context) ([]domain.Table, error) {
	return s.repo.List(ctx)
}
