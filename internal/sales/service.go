package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// RepositoryPort is the storage surface RecordSale and the read paths need.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	List(ctx context.Context, filter ListFilter, p shared.PageParams) ([]Sale, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Get(ctx context.Context, id int64) (*Sale, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	ListSellers(ctx context.Context) ([]Seller, error)
}

// CacheInvalidator is notified after a sale commits so cached reports drop
// their now-stale aggregates. A nil invalidator is a no-op.
type CacheInvalidator interface {
	BumpVersion(ctx context.Context) error
}

// StockAlerter queues a stock audit when a sale leaves a variant at or
// below the restock threshold. A nil alerter is a no-op.
type StockAlerter interface {
	EnqueueLowStockScan(ctx context.Context, threshold int) error
}

type Service struct {
	repo           RepositoryPort
	cache          CacheInvalidator
	alerts         StockAlerter
	alertThreshold int
	logger         *slog.Logger
	now            func() time.Time
}

func NewService(repo RepositoryPort, cache CacheInvalidator, alerts StockAlerter, alertThreshold int, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, alerts: alerts, alertThreshold: alertThreshold, logger: logger, now: time.Now}
}

const uniqueViolation = "23505"

// RecordSale commits one sale atomically: folio assignment, header insert,
// per-line stock check and decrement, line inserts. Any failure rolls the
// whole sale back. A folio collision from a concurrent commit is retried
// once with a fresh sequence value.
func (s *Service) RecordSale(ctx context.Context, seller shared.Identity, req CreateRequest) (*CreateResult, error) {
	if err := validateSale(req); err != nil {
		return nil, err
	}

	subtotal := 0.0
	for _, item := range req.Items {
		subtotal += round2(item.UnitPrice * float64(item.Quantity))
	}
	subtotal = round2(subtotal)
	total := round2(subtotal - req.Discount)
	if total < 0 {
		total = 0
	}
	var change *float64
	if req.AmountTendered != nil {
		c := round2(*req.AmountTendered - total)
		change = &c
	}

	result, lowStock, err := s.commit(ctx, seller, req, subtotal, total, change)
	if isUniqueViolation(err) {
		s.logger.WarnContext(ctx, "folio collision, retrying sale commit", "seller_id", seller.UserID)
		result, lowStock, err = s.commit(ctx, seller, req, subtotal, total, change)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cerr := s.cache.BumpVersion(ctx); cerr != nil {
			s.logger.WarnContext(ctx, "report cache invalidation failed", "error", cerr)
		}
	}
	if lowStock && s.alerts != nil {
		if aerr := s.alerts.EnqueueLowStockScan(ctx, s.alertThreshold); aerr != nil {
			s.logger.WarnContext(ctx, "low stock scan enqueue failed", "error", aerr)
		}
	}
	return result, nil
}

func (s *Service) commit(ctx context.Context, seller shared.Identity, req CreateRequest, subtotal, total float64, change *float64) (*CreateResult, bool, error) {
	var result CreateResult
	var lowStock bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.CheckPaymentMethod(ctx, req.PaymentMethodID); err != nil {
			return err
		}
		n, err := tx.NextFolioNumber(ctx)
		if err != nil {
			return err
		}
		sale := Sale{
			Folio:           FormatFolio(n),
			SellerID:        seller.UserID,
			Subtotal:        subtotal,
			Discount:        req.Discount,
			DiscountNote:    req.DiscountNote,
			Total:           total,
			PaymentMethodID: req.PaymentMethodID,
			AmountTendered:  req.AmountTendered,
			Change:          change,
			Status:          StatusCompleted,
			CreatedAt:       s.now().UTC(),
		}
		saleID, err := tx.InsertSale(ctx, &sale)
		if err != nil {
			return err
		}

		for _, item := range req.Items {
			variant, err := tx.LockVariant(ctx, item.ProductID, item.SizeID)
			if err != nil {
				return err
			}
			if variant.Stock < item.Quantity {
				return fmt.Errorf("%w: %s %s has %d left", shared.ErrStockTooLow, variant.ProductName, variant.SizeName, variant.Stock)
			}
			if err := tx.DecrementStock(ctx, item.ProductID, item.SizeID, item.Quantity); err != nil {
				return err
			}
			if variant.Stock-item.Quantity <= s.alertThreshold {
				lowStock = true
			}
			line := SaleLine{
				SaleID:      saleID,
				ProductID:   item.ProductID,
				SizeID:      item.SizeID,
				ProductName: item.ProductName,
				SizeName:    variant.SizeName,
				UnitPrice:   item.UnitPrice,
				Quantity:    item.Quantity,
				Subtotal:    round2(item.UnitPrice * float64(item.Quantity)),
			}
			if err := tx.InsertLine(ctx, &line); err != nil {
				return err
			}
		}

		result = CreateResult{ID: saleID, Folio: sale.Folio}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, lowStock, nil
}

// List returns one page of sales plus the total match count.
func (s *Service) List(ctx context.Context, filter ListFilter, p shared.PageParams) ([]Sale, int, error) {
	sales, err := s.repo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) PaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	return s.repo.ListPaymentMethods(ctx)
}

func (s *Service) Sellers(ctx context.Context) ([]Seller, error) {
	return s.repo.ListSellers(ctx)
}

func validateSale(req CreateRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: a sale needs at least one item", shared.ErrValidation)
	}
	if req.Discount < 0 {
		return fmt.Errorf("%w: discount cannot be negative", shared.ErrValidation)
	}
	if req.PaymentMethodID <= 0 {
		return fmt.Errorf("%w: payment method is required", shared.ErrValidation)
	}
	seen := make(map[[2]int64]struct{}, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", shared.ErrValidation, i+1)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d price cannot be negative", shared.ErrValidation, i+1)
		}
		key := [2]int64{item.ProductID, item.SizeID}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: item %d repeats a product and size already in the cart", shared.ErrValidation, i+1)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
