package reporting

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	builds     atomic.Int64
	summary    Summary
	daily      []DailyPoint
	lowStock   []LowStockItem
	lastFilter Filter
}

func (r *stubRepo) Summary(ctx context.Context, dr DateRange, f Filter, now time.Time) (Summary, error) {
	r.builds.Add(1)
	r.lastFilter = f
	return r.summary, nil
}

func (r *stubRepo) DailyTotals(ctx context.Context, dr DateRange, f Filter) ([]DailyPoint, error) {
	return r.daily, nil
}

func (r *stubRepo) TopProducts(ctx context.Context, dr DateRange, f Filter, limit int) ([]TopProduct, error) {
	return nil, nil
}

func (r *stubRepo) ByPaymentMethod(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	return []Breakdown{{Key: 1, Label: "Efectivo", Count: 2, Total: 300}}, nil
}

func (r *stubRepo) BySeller(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	return nil, nil
}

func (r *stubRepo) ByCategory(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	return nil, nil
}

func (r *stubRepo) BySize(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	return nil, nil
}

func (r *stubRepo) LowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	return r.lowStock, nil
}

func newCachedService(t *testing.T) (*Service, *stubRepo, *Cache) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stubRepo{
		summary: Summary{SalesCount: 2, Revenue: 300, ItemsSold: 5},
		daily:   []DailyPoint{{Date: "2024-06-02", Count: 2, Total: 300}},
	}
	cache := NewCache(client, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, cache, logger)
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) }
	return svc, repo, cache
}

func TestDashboardServedFromCache(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()
	dr := DateRange{From: day("2024-06-01"), To: day("2024-06-03")}

	first, err := svc.Dashboard(ctx, dr, Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, first.Summary.SalesCount)
	require.Len(t, first.Daily, 3)
	require.Equal(t, int64(1), repo.builds.Load())

	second, err := svc.Dashboard(ctx, dr, Filter{})
	require.NoError(t, err)
	require.Equal(t, first.Summary, second.Summary)
	require.Equal(t, int64(1), repo.builds.Load(), "second request must hit the cache")
}

func TestDashboardRebuiltAfterVersionBump(t *testing.T) {
	svc, repo, cache := newCachedService(t)
	ctx := context.Background()
	dr := DateRange{From: day("2024-06-01"), To: day("2024-06-03")}

	_, err := svc.Dashboard(ctx, dr, Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), repo.builds.Load())

	require.NoError(t, cache.BumpVersion(ctx))

	repo.summary.SalesCount = 3
	rebuilt, err := svc.Dashboard(ctx, dr, Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, rebuilt.Summary.SalesCount)
	require.Equal(t, int64(2), repo.builds.Load())
}

func TestDashboardDistinctRangesCachedSeparately(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, DateRange{From: day("2024-06-01"), To: day("2024-06-03")}, Filter{})
	require.NoError(t, err)
	_, err = svc.Dashboard(ctx, DateRange{From: day("2024-06-01"), To: day("2024-06-02")}, Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.builds.Load())
}

func TestDashboardFilterReachesRepositoryAndCachesSeparately(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()
	dr := DateRange{From: day("2024-06-01"), To: day("2024-06-03")}

	_, err := svc.Dashboard(ctx, dr, Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), repo.builds.Load())

	f := Filter{SellerID: 7, CategoryID: 2}
	_, err = svc.Dashboard(ctx, dr, f)
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.builds.Load(), "a filtered dashboard is its own cache entry")
	require.Equal(t, f, repo.lastFilter)

	// Same filter again comes from the cache.
	_, err = svc.Dashboard(ctx, dr, f)
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.builds.Load())
}

func TestDashboardWithoutRedis(t *testing.T) {
	repo := &stubRepo{summary: Summary{SalesCount: 1, Revenue: 50}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, NewCache(nil, time.Minute), logger)
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) }

	dr := DateRange{From: day("2024-06-01"), To: day("2024-06-01")}
	for i := 0; i < 2; i++ {
		d, err := svc.Dashboard(context.Background(), dr, Filter{})
		require.NoError(t, err)
		require.Equal(t, 1, d.Summary.SalesCount)
	}
	require.Equal(t, int64(2), repo.builds.Load(), "no cache means every request builds")
}

func TestLowStockCached(t *testing.T) {
	svc, repo, cache := newCachedService(t)
	repo.lowStock = []LowStockItem{{ProductID: 1, ProductName: "Playera", SizeName: "M", Stock: 2}}
	ctx := context.Background()

	items, err := svc.LowStock(ctx, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)

	repo.lowStock = nil
	cached, err := svc.LowStock(ctx, 3)
	require.NoError(t, err)
	require.Len(t, cached, 1, "stale but versioned result is expected until a bump")

	require.NoError(t, cache.BumpVersion(ctx))
	fresh, err := svc.LowStock(ctx, 3)
	require.NoError(t, err)
	require.Empty(t, fresh)
}
