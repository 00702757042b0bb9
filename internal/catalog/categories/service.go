package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// Service wraps category business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, fmt.Errorf("%w: invalid category id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", shared.ErrValidation)
	}
	category := Category{Name: req.Name, Description: req.Description, IsActive: true}
	id, err := s.repo.Create(ctx, category)
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	category.ID = id
	return category, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", shared.ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: category name is required", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, Category{Name: req.Name, Description: req.Description})
}

// Delete soft-deletes a category. A category with active products is kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", shared.ErrValidation)
	}
	count, err := s.repo.CountActiveProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("count active products: %w", err)
	}
	if count > 0 {
		return shared.ErrCategoryNotEmpty
	}
	return s.repo.SoftDelete(ctx, id)
}
