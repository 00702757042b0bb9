package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListActive(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	ListSizes(ctx context.Context) ([]Size, error)
	SoftDelete(ctx context.Context, id int64) error
}

// Service coordinates catalog product operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.ListActive(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListSizes(ctx context.Context) ([]Size, error) {
	return s.repo.ListSizes(ctx)
}

// Create persists a product and its size rows in one transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Product, error) {
	if err := validateProductFields(req.Name, req.Price, req.CategoryID, req.Sizes); err != nil {
		return Product{}, err
	}

	product := Product{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountPct:     normalizePct(req.DiscountPct),
		DiscountedPrice: DiscountedPrice(req.Price, req.DiscountPct),
		CategoryID:      req.CategoryID,
		IsActive:        true,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertProduct(ctx, product)
		if err != nil {
			return err
		}
		product.ID = id
		return tx.ReplaceSizes(ctx, id, toSizeStocks(req.Sizes))
	})
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Update rewrites product fields, recomputes the discounted price, and
// replaces the full size/stock set.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	if err := validateProductFields(req.Name, req.Price, req.CategoryID, req.Sizes); err != nil {
		return err
	}

	product := Product{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountPct:     normalizePct(req.DiscountPct),
		DiscountedPrice: DiscountedPrice(req.Price, req.DiscountPct),
		CategoryID:      req.CategoryID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateProduct(ctx, id, product); err != nil {
			return err
		}
		return tx.ReplaceSizes(ctx, id, toSizeStocks(req.Sizes))
	})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete soft-deletes a product unconditionally; committed sales carry
// denormalized snapshots and are unaffected.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, id)
}

func validateProductFields(name string, price float64, categoryID int64, sizes []SizeStockReq) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive", shared.ErrValidation)
	}
	if categoryID <= 0 {
		return fmt.Errorf("%w: category is required", shared.ErrValidation)
	}
	seen := make(map[int64]struct{}, len(sizes))
	for _, s := range sizes {
		if s.SizeID <= 0 {
			return fmt.Errorf("%w: invalid size id", shared.ErrValidation)
		}
		if s.Stock < 0 {
			return fmt.Errorf("%w: stock must not be negative", shared.ErrValidation)
		}
		if _, dup := seen[s.SizeID]; dup {
			return fmt.Errorf("%w: duplicate size %d", shared.ErrValidation, s.SizeID)
		}
		seen[s.SizeID] = struct{}{}
	}
	return nil
}

func normalizePct(pct *float64) *float64 {
	if pct == nil || *pct <= 0 {
		return nil
	}
	return pct
}

func toSizeStocks(reqs []SizeStockReq) []SizeStock {
	out := make([]SizeStock, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, SizeStock{SizeID: r.SizeID, Stock: r.Stock})
	}
	return out
}
