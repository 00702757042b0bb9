package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

func TestDiscountedPrice(t *testing.T) {
	pct := func(v float64) *float64 { return &v }

	cases := []struct {
		name  string
		price float64
		pct   *float64
		want  *float64
	}{
		{"quarter off", 200, pct(25), pct(150)},
		{"rounding", 99.99, pct(10), pct(89.99)},
		{"zero pct", 200, pct(0), nil},
		{"negative pct", 200, pct(-5), nil},
		{"absent pct", 200, nil, nil},
		{"full discount", 80, pct(100), pct(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DiscountedPrice(tc.price, tc.pct)
			if tc.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.InDelta(t, *tc.want, *got, 0.001)
		})
	}
}

type memoryRepo struct {
	products map[int64]Product
	sizes    map[int64][]SizeStock
	nextID   int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]Product),
		sizes:    make(map[int64][]SizeStock),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListActive(ctx context.Context, filter ListFilter) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return Product{}, shared.ErrNotFound
	}
	p.Sizes = r.sizes[id]
	p.StockTotal = stockTotal(p.Sizes)
	return p, nil
}

func (r *memoryRepo) ListSizes(ctx context.Context) ([]Size, error) {
	return []Size{{ID: 1, Name: "S"}, {ID: 2, Name: "M"}}, nil
}

func (r *memoryRepo) SoftDelete(ctx context.Context, id int64) error {
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return shared.ErrNotFound
	}
	p.IsActive = false
	r.products[id] = p
	return nil
}

func (t *memoryTx) InsertProduct(ctx context.Context, p Product) (int64, error) {
	t.repo.nextID++
	p.ID = t.repo.nextID
	t.repo.products[p.ID] = p
	return p.ID, nil
}

func (t *memoryTx) UpdateProduct(ctx context.Context, id int64, p Product) error {
	existing, ok := t.repo.products[id]
	if !ok || !existing.IsActive {
		return shared.ErrNotFound
	}
	p.ID = id
	p.IsActive = existing.IsActive
	t.repo.products[id] = p
	return nil
}

func (t *memoryTx) ReplaceSizes(ctx context.Context, productID int64, sizes []SizeStock) error {
	t.repo.sizes[productID] = sizes
	return nil
}

func pctOf(v float64) *float64 { return &v }

func TestCreateComputesDiscountedPrice(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), CreateRequest{
		Name:        "Hoodie",
		Price:       200,
		DiscountPct: pctOf(25),
		CategoryID:  1,
		Sizes:       []SizeStockReq{{SizeID: 1, Stock: 4}, {SizeID: 2, Stock: 0}},
	})
	require.NoError(t, err)
	require.NotNil(t, created.DiscountedPrice)
	require.InDelta(t, 150.0, *created.DiscountedPrice, 0.001)
}

func TestUpdateRecomputesDiscountedPrice(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{
		Name: "Hoodie", Price: 200, DiscountPct: pctOf(25), CategoryID: 1,
	})
	require.NoError(t, err)

	// Dropping the discount clears the derived price entirely.
	err = svc.Update(ctx, created.ID, UpdateRequest{
		Name: "Hoodie", Price: 180, CategoryID: 1,
		Sizes: []SizeStockReq{{SizeID: 1, Stock: 9}},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, got.DiscountedPrice)
	require.InDelta(t, 180.0, got.Price, 0.001)
	require.Equal(t, 9, got.StockTotal)
}

func TestCreateRejectsDuplicateSizes(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateRequest{
		Name: "Hoodie", Price: 200, CategoryID: 1,
		Sizes: []SizeStockReq{{SizeID: 1, Stock: 2}, {SizeID: 1, Stock: 3}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSoftDeleteHidesProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{Name: "Hoodie", Price: 100, CategoryID: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
