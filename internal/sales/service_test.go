package sales

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

type variantKey struct {
	productID int64
	sizeID    int64
}

// memoryRepo mimics the transactional guarantees of the real repository:
// WithTx snapshots state and restores it when fn fails, and a mutex
// serializes transactions the way row locks do.
type memoryRepo struct {
	mu             sync.Mutex
	stock          map[variantKey]*VariantRow
	sales          map[int64]*Sale
	lines          map[int64][]SaleLine
	paymentMethods map[int64]string
	folioSeq       int64
	nextID         int64
	saleFault      error
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		stock:          make(map[variantKey]*VariantRow),
		sales:          make(map[int64]*Sale),
		lines:          make(map[int64][]SaleLine),
		paymentMethods: map[int64]string{1: "Efectivo", 2: "Tarjeta"},
	}
}

func (r *memoryRepo) addVariant(productID, sizeID int64, productName, sizeName string, stock int) {
	r.stock[variantKey{productID, sizeID}] = &VariantRow{
		ProductID:   productID,
		SizeID:      sizeID,
		ProductName: productName,
		SizeName:    sizeName,
		Stock:       stock,
	}
}

func (r *memoryRepo) snapshot() map[variantKey]*VariantRow {
	out := make(map[variantKey]*VariantRow, len(r.stock))
	for k, v := range r.stock {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Sequences survive rollback, so folioSeq is deliberately not restored.
	stockBefore := r.snapshot()
	salesBefore := make(map[int64]*Sale, len(r.sales))
	for id, s := range r.sales {
		salesBefore[id] = s
	}
	linesBefore := make(map[int64][]SaleLine, len(r.lines))
	for id, ls := range r.lines {
		linesBefore[id] = ls
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.stock = stockBefore
		r.sales = salesBefore
		r.lines = linesBefore
		return err
	}
	return nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter, p shared.PageParams) ([]Sale, error) {
	var out []Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memoryRepo) Count(ctx context.Context, filter ListFilter) (int, error) {
	return len(r.sales), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *s
	cp.Lines = r.lines[id]
	return &cp, nil
}

func (r *memoryRepo) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	return []PaymentMethod{{ID: 1, Name: "Efectivo"}}, nil
}

func (t *memoryTx) CheckPaymentMethod(ctx context.Context, id int64) error {
	if _, ok := t.repo.paymentMethods[id]; !ok {
		return shared.ErrNotFound
	}
	return nil
}

func (r *memoryRepo) ListSellers(ctx context.Context) ([]Seller, error) {
	return []Seller{{ID: 1, Name: "Ana"}}, nil
}

func (t *memoryTx) NextFolioNumber(ctx context.Context) (int64, error) {
	t.repo.folioSeq++
	return t.repo.folioSeq, nil
}

func (t *memoryTx) InsertSale(ctx context.Context, s *Sale) (int64, error) {
	if t.repo.saleFault != nil {
		err := t.repo.saleFault
		t.repo.saleFault = nil
		return 0, err
	}
	t.repo.nextID++
	cp := *s
	cp.ID = t.repo.nextID
	t.repo.sales[cp.ID] = &cp
	return cp.ID, nil
}

func (t *memoryTx) LockVariant(ctx context.Context, productID, sizeID int64) (*VariantRow, error) {
	row, ok := t.repo.stock[variantKey{productID, sizeID}]
	if !ok {
		return nil, shared.ErrSizeUnavailable
	}
	cp := *row
	return &cp, nil
}

func (t *memoryTx) DecrementStock(ctx context.Context, productID, sizeID int64, qty int) error {
	row, ok := t.repo.stock[variantKey{productID, sizeID}]
	if !ok || row.Stock < qty {
		return shared.ErrStockTooLow
	}
	row.Stock -= qty
	return nil
}

func (t *memoryTx) InsertLine(ctx context.Context, line *SaleLine) error {
	t.repo.nextID++
	line.ID = t.repo.nextID
	t.repo.lines[line.SaleID] = append(t.repo.lines[line.SaleID], *line)
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, nil, nil, 0, logger)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

// stockAlertRecorder captures queued low-stock scans.
type stockAlertRecorder struct {
	mu         sync.Mutex
	thresholds []int
}

func (a *stockAlertRecorder) EnqueueLowStockScan(ctx context.Context, threshold int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.thresholds = append(a.thresholds, threshold)
	return nil
}

func seller() shared.Identity {
	return shared.Identity{UserID: 7, Name: "Ana", Email: "ana@molecula.mx", Role: "seller"}
}

func TestRecordSaleHappyPath(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera Nebulosa", "M", 5)
	repo.addVariant(1, 3, "Playera Nebulosa", "L", 2)
	svc := newTestService(repo)

	tendered := 500.0
	result, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items: []ItemRequest{
			{ProductID: 1, SizeID: 2, ProductName: "Playera Nebulosa", UnitPrice: 150, Quantity: 2},
			{ProductID: 1, SizeID: 3, ProductName: "Playera Nebulosa", UnitPrice: 150, Quantity: 1},
		},
		PaymentMethodID: 1,
		Discount:        50,
		AmountTendered:  &tendered,
	})
	require.NoError(t, err)
	require.Equal(t, "FACT-0001", result.Folio)

	sale, err := repo.Get(context.Background(), result.ID)
	require.NoError(t, err)
	require.InDelta(t, 450.0, sale.Subtotal, 0.001)
	require.InDelta(t, 400.0, sale.Total, 0.001)
	require.NotNil(t, sale.Change)
	require.InDelta(t, 100.0, *sale.Change, 0.001)
	require.Len(t, sale.Lines, 2)
	require.Equal(t, "M", sale.Lines[0].SizeName)

	require.Equal(t, 3, repo.stock[variantKey{1, 2}].Stock)
	require.Equal(t, 1, repo.stock[variantKey{1, 3}].Stock)
}

func TestRecordSaleChangeOnlyWhenTendered(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 5)
	svc := newTestService(repo)

	result, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 2,
	})
	require.NoError(t, err)

	sale, err := repo.Get(context.Background(), result.ID)
	require.NoError(t, err)
	require.Nil(t, sale.AmountTendered)
	require.Nil(t, sale.Change)
}

func TestRecordSaleNegativeChangePreserved(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 5)
	svc := newTestService(repo)

	tendered := 80.0
	result, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 1,
		AmountTendered:  &tendered,
	})
	require.NoError(t, err)

	sale, err := repo.Get(context.Background(), result.ID)
	require.NoError(t, err)
	require.NotNil(t, sale.Change)
	require.InDelta(t, -20.0, *sale.Change, 0.001)
}

func TestRecordSaleTotalNeverNegative(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Sticker", "U", 10)
	svc := newTestService(repo)

	result, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Sticker", UnitPrice: 20, Quantity: 1}},
		PaymentMethodID: 1,
		Discount:        100,
	})
	require.NoError(t, err)

	sale, err := repo.Get(context.Background(), result.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.0, sale.Total, 0.001)
}

func TestRecordSaleAllOrNothing(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 5)
	repo.addVariant(1, 3, "Playera", "L", 1)
	svc := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items: []ItemRequest{
			{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 2},
			{ProductID: 1, SizeID: 3, ProductName: "Playera", UnitPrice: 100, Quantity: 3},
		},
		PaymentMethodID: 1,
	})
	require.ErrorIs(t, err, shared.ErrStockTooLow)

	// The first line's decrement must have been rolled back.
	require.Equal(t, 5, repo.stock[variantKey{1, 2}].Stock)
	require.Equal(t, 1, repo.stock[variantKey{1, 3}].Stock)
	require.Empty(t, repo.sales)
}

func TestRecordSaleUnknownVariant(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 9, SizeID: 9, ProductName: "Fantasma", UnitPrice: 10, Quantity: 1}},
		PaymentMethodID: 1,
	})
	require.ErrorIs(t, err, shared.ErrSizeUnavailable)
}

func TestRecordSaleZeroStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 0)
	svc := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 1,
	})
	require.ErrorIs(t, err, shared.ErrStockTooLow)
}

func TestRecordSaleUnknownPaymentMethod(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 5)
	svc := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 99,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)

	// The reference is checked before anything else, so no folio is burned
	// and no stock moves.
	require.Equal(t, int64(0), repo.folioSeq)
	require.Equal(t, 5, repo.stock[variantKey{1, 2}].Stock)
	require.Empty(t, repo.sales)
}

func TestRecordSaleQueuesLowStockAlert(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 3)
	alerts := &stockAlertRecorder{}
	svc := newTestService(repo)
	svc.alerts = alerts
	svc.alertThreshold = 2

	// 3 - 1 = 2 remaining, at the threshold.
	_, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, []int{2}, alerts.thresholds)
}

func TestRecordSaleNoAlertAboveThreshold(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 10)
	alerts := &stockAlertRecorder{}
	svc := newTestService(repo)
	svc.alerts = alerts
	svc.alertThreshold = 2

	_, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 1,
	})
	require.NoError(t, err)
	require.Empty(t, alerts.thresholds)
}

func TestRecordSaleConcurrentLastUnit(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 1)
	svc := newTestService(repo)

	req := CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 1,
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSale(context.Background(), seller(), req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, tooLow int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, shared.ErrStockTooLow)
			tooLow++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, tooLow)
	require.Equal(t, 0, repo.stock[variantKey{1, 2}].Stock)
}

func TestRecordSaleRetriesFolioCollision(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 5)
	repo.saleFault = &pgconn.PgError{Code: "23505", ConstraintName: "sales_folio_key"}
	svc := newTestService(repo)

	result, err := svc.RecordSale(context.Background(), seller(), CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 100, Quantity: 1}},
		PaymentMethodID: 1,
	})
	require.NoError(t, err)
	// The failed attempt burned a sequence value, so the retry gets the next one.
	require.Equal(t, "FACT-0002", result.Folio)
	require.Equal(t, 4, repo.stock[variantKey{1, 2}].Stock)
}

func TestRecordSaleValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 5)
	svc := newTestService(repo)

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"no items", CreateRequest{PaymentMethodID: 1}},
		{"negative discount", CreateRequest{
			Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "P", UnitPrice: 10, Quantity: 1}},
			PaymentMethodID: 1,
			Discount:        -1,
		}},
		{"zero quantity", CreateRequest{
			Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "P", UnitPrice: 10}},
			PaymentMethodID: 1,
		}},
		{"duplicate variant", CreateRequest{
			Items: []ItemRequest{
				{ProductID: 1, SizeID: 2, ProductName: "P", UnitPrice: 10, Quantity: 1},
				{ProductID: 1, SizeID: 2, ProductName: "P", UnitPrice: 10, Quantity: 1},
			},
			PaymentMethodID: 1,
		}},
		{"missing payment method", CreateRequest{
			Items: []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "P", UnitPrice: 10, Quantity: 1}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordSale(context.Background(), seller(), tc.req)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestSequentialFolios(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant(1, 2, "Playera", "M", 10)
	svc := newTestService(repo)

	req := CreateRequest{
		Items:           []ItemRequest{{ProductID: 1, SizeID: 2, ProductName: "Playera", UnitPrice: 50, Quantity: 1}},
		PaymentMethodID: 1,
	}
	for i, want := range []string{"FACT-0001", "FACT-0002", "FACT-0003"} {
		result, err := svc.RecordSale(context.Background(), seller(), req)
		require.NoError(t, err, "sale %d", i+1)
		require.Equal(t, want, result.Folio)
	}
}
