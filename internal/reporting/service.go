package reporting

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

const topProductsLimit = 10

// RepositoryPort is the aggregation surface the service reads from.
type RepositoryPort interface {
	Summary(ctx context.Context, dr DateRange, f Filter, now time.Time) (Summary, error)
	DailyTotals(ctx context.Context, dr DateRange, f Filter) ([]DailyPoint, error)
	TopProducts(ctx context.Context, dr DateRange, f Filter, limit int) ([]TopProduct, error)
	ByPaymentMethod(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error)
	BySeller(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error)
	ByCategory(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error)
	BySize(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockItem, error)
}

type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Dashboard builds the composite dashboard for a range and optional
// dimension filter. Concurrent requests for the same key collapse into one
// build, and results are served from the versioned cache until a sale
// commit bumps the version.
func (s *Service) Dashboard(ctx context.Context, dr DateRange, f Filter) (*Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, keyDashboard(dr, f)...)
	if err != nil {
		s.logger.WarnContext(ctx, "report cache unavailable, building uncached", "error", err)
		return s.buildDashboard(ctx, dr, f)
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		var d Dashboard
		err := s.cache.FetchJSON(ctx, key, &d, func(ctx context.Context) (any, error) {
			return s.buildDashboard(ctx, dr, f)
		})
		if err != nil {
			return nil, err
		}
		return &d, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Dashboard), nil
}

func (s *Service) buildDashboard(ctx context.Context, dr DateRange, f Filter) (*Dashboard, error) {
	summary, err := s.repo.Summary(ctx, dr, f, s.now())
	if err != nil {
		return nil, err
	}
	daily, err := s.repo.DailyTotals(ctx, dr, f)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, dr, f, topProductsLimit)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.repo.ByPaymentMethod(ctx, dr, f)
	if err != nil {
		return nil, err
	}
	bySeller, err := s.repo.BySeller(ctx, dr, f)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repo.ByCategory(ctx, dr, f)
	if err != nil {
		return nil, err
	}
	bySize, err := s.repo.BySize(ctx, dr, f)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		Summary:         summary,
		Daily:           FillDailySeries(dr, daily),
		TopProducts:     top,
		ByPaymentMethod: byMethod,
		BySeller:        bySeller,
		ByCategory:      byCategory,
		BySize:          bySize,
	}
	if d.TopProducts == nil {
		d.TopProducts = []TopProduct{}
	}
	if d.ByPaymentMethod == nil {
		d.ByPaymentMethod = []Breakdown{}
	}
	if d.BySeller == nil {
		d.BySeller = []Breakdown{}
	}
	if d.ByCategory == nil {
		d.ByCategory = []Breakdown{}
	}
	if d.BySize == nil {
		d.BySize = []Breakdown{}
	}
	return d, nil
}

// LowStock lists variants at or below the threshold, cached under the same
// version as the dashboard so sales invalidate it too.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	key, err := s.cache.BuildKey(ctx, keyLowStock(threshold)...)
	if err != nil {
		return s.repo.LowStock(ctx, threshold)
	}
	var items []LowStockItem
	err = s.cache.FetchJSON(ctx, key, &items, func(ctx context.Context) (any, error) {
		return s.repo.LowStock(ctx, threshold)
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []LowStockItem{}
	}
	return items, nil
}

// Warmup pre-populates the unfiltered dashboard cache for the default
// range. Run by the nightly worker task.
func (s *Service) Warmup(ctx context.Context, days int) error {
	_, err := s.Dashboard(ctx, DefaultRange(s.now(), days), Filter{})
	return err
}
