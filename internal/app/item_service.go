package app

import (
	"context"
	"strings"

	"github.com/tableside/tableside/internal/domain"
)

// ItemRepository is the persistence contract for the menu catalog.
// Delete maps foreign-key violations to ErrItemInUse.
type ItemRepository interface {
	Create(ctx context.Context, item domain.Item) (domain.Item, error)
	Get(ctx context.Context, id int64) (domain.Item, error)
	Update(ctx context.Context, item domain.Item) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Item, error)
}

type ItemService struct {
	repo ItemRepository
}

func NewItemService(repo ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

func validateItem(item domain.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return domain.ErrItemNameRequired
	}
	if strings.TrimSpace(item.Type) == "" {
		return domain.ErrItemTypeRequired
	}
	if item.Price.IsNegative() {
		return domain.ErrNegativePrice
	}
	return nil
}

func (s *ItemService) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	if err := validateItem(item); err != nil {
		return domain.Item{}, err
	}
	return s.repo.Create(ctx, item)
}

func (s *ItemService) Get(ctx context.Context, id int64) (domain.Item, error) {
	if id <= 0 {
		return domain.Item{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *ItemService) Update(ctx context.Context, id int64, item domain.Item) (domain.Item, error) {
	if id <= 0 {
		return domain.Item{}, domain.ErrInvalidID
	}
	if err := validateItem(item); err != nil {
		return domain.Item{}, err
	}
	item.ID = id
	if _, err := s.repo.Get(ctx, id); err != nil {
		return domain.Item{}, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *ItemService) List(ctx context.Context) ([]domain.Item, error) {
	return s.repo.List(ctx)
}
