package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molecula-pos/molecula-pos/internal/platform/db"
	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// TxRepository exposes the statements RecordSale runs inside one transaction.
type TxRepository interface {
	CheckPaymentMethod(ctx context.Context, id int64) error
	NextFolioNumber(ctx context.Context) (int64, error)
	InsertSale(ctx context.Context, s *Sale) (int64, error)
	LockVariant(ctx context.Context, productID, sizeID int64) (*VariantRow, error)
	DecrementStock(ctx context.Context, productID, sizeID int64, qty int) error
	InsertLine(ctx context.Context, line *SaleLine) error
}

// VariantRow is a product-size row read under a row lock.
type VariantRow struct {
	ProductID   int64
	SizeID      int64
	ProductName string
	SizeName    string
	Stock       int
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn against a transactional repository. Any error rolls the
// whole transaction back, so a sale either commits with every line and
// stock decrement or leaves no trace.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// CheckPaymentMethod verifies the referenced payment method exists and is
// active before any sequence value is consumed.
func (t *txRepository) CheckPaymentMethod(ctx context.Context, id int64) error {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM payment_methods WHERE id = $1 AND is_active)`
	if err := t.tx.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return fmt.Errorf("check payment method %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: payment method %d", shared.ErrNotFound, id)
	}
	return nil
}

func (t *txRepository) NextFolioNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := t.tx.QueryRow(ctx, `SELECT nextval('folio_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next folio number: %w", err)
	}
	return n, nil
}

func (t *txRepository) InsertSale(ctx context.Context, s *Sale) (int64, error) {
	const q = `
		INSERT INTO sales (folio, seller_id, subtotal, discount, discount_note, total,
			payment_method_id, amount_tendered, change, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, q,
		s.Folio, s.SellerID, s.Subtotal, s.Discount, s.DiscountNote, s.Total,
		s.PaymentMethodID, s.AmountTendered, s.Change, s.Status, s.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}
	return id, nil
}

// LockVariant reads the product-size row FOR UPDATE so concurrent sales of
// the same variant serialize on the stock check.
func (t *txRepository) LockVariant(ctx context.Context, productID, sizeID int64) (*VariantRow, error) {
	const q = `
		SELECT ps.product_id, ps.size_id, p.name, sz.name, ps.stock
		FROM product_sizes ps
		JOIN products p ON p.id = ps.product_id AND p.is_active
		JOIN sizes sz ON sz.id = ps.size_id
		WHERE ps.product_id = $1 AND ps.size_id = $2
		FOR UPDATE OF ps`
	var row VariantRow
	err := t.tx.QueryRow(ctx, q, productID, sizeID).Scan(
		&row.ProductID, &row.SizeID, &row.ProductName, &row.SizeName, &row.Stock,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrSizeUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("lock variant %d/%d: %w", productID, sizeID, err)
	}
	return &row, nil
}

// DecrementStock subtracts qty and refuses to go negative. The WHERE guard
// backs up the row lock taken by LockVariant.
func (t *txRepository) DecrementStock(ctx context.Context, productID, sizeID int64, qty int) error {
	const q = `
		UPDATE product_sizes
		SET stock = stock - $3
		WHERE product_id = $1 AND size_id = $2 AND stock >= $3`
	tag, err := t.tx.Exec(ctx, q, productID, sizeID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock %d/%d: %w", productID, sizeID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStockTooLow
	}
	return nil
}

func (t *txRepository) InsertLine(ctx context.Context, line *SaleLine) error {
	const q = `
		INSERT INTO sale_items (sale_id, product_id, size_id, product_name, size_name,
			unit_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := t.tx.QueryRow(ctx, q,
		line.SaleID, line.ProductID, line.SizeID, line.ProductName, line.SizeName,
		line.UnitPrice, line.Quantity, line.Subtotal,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// filterClauses renders filter as AND predicates on the sales alias "s",
// continuing the positional numbering from args.
func filterClauses(sb *strings.Builder, args *[]any, filter ListFilter) {
	add := func(clause string, v any) {
		*args = append(*args, v)
		sb.WriteString(fmt.Sprintf(clause, len(*args)))
	}
	if filter.DateFrom != nil {
		add(" AND s.created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add(" AND s.created_at < $%d", *filter.DateTo)
	}
	if filter.SellerID > 0 {
		add(" AND s.seller_id = $%d", filter.SellerID)
	}
	if filter.PaymentMethodID > 0 {
		add(" AND s.payment_method_id = $%d", filter.PaymentMethodID)
	}
	if filter.ProductID > 0 {
		add(" AND EXISTS (SELECT 1 FROM sale_items f WHERE f.sale_id = s.id AND f.product_id = $%d)", filter.ProductID)
	}
}

// List returns sale headers newest first, with line counts.
func (r *Repository) List(ctx context.Context, filter ListFilter, p shared.PageParams) ([]Sale, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT s.id, s.folio, s.seller_id, u.name, s.subtotal, s.discount, s.discount_note,
			s.total, s.payment_method_id, pm.name, s.amount_tendered, s.change, s.status,
			s.created_at, COUNT(si.id)
		FROM sales s
		JOIN users u ON u.id = s.seller_id
		JOIN payment_methods pm ON pm.id = s.payment_method_id
		LEFT JOIN sale_items si ON si.sale_id = s.id
		WHERE 1=1`)
	args := make([]any, 0, 6)
	filterClauses(&sb, &args, filter)
	sb.WriteString(" GROUP BY s.id, u.name, pm.name ORDER BY s.created_at DESC, s.id DESC")
	args = append(args, p.Limit())
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, p.Offset())
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]Sale, 0, p.Limit())
	for rows.Next() {
		var s Sale
		if err := rows.Scan(
			&s.ID, &s.Folio, &s.SellerID, &s.SellerName, &s.Subtotal, &s.Discount,
			&s.DiscountNote, &s.Total, &s.PaymentMethodID, &s.PaymentMethodName,
			&s.AmountTendered, &s.Change, &s.Status, &s.CreatedAt, &s.NumItems,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// Count returns how many sales match the filter, for pagination metadata.
func (r *Repository) Count(ctx context.Context, filter ListFilter) (int, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT COUNT(*) FROM sales s WHERE 1=1`)
	args := make([]any, 0, 5)
	filterClauses(&sb, &args, filter)
	var total int
	if err := r.pool.QueryRow(ctx, sb.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return total, nil
}

// Get returns one sale with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	const q = `
		SELECT s.id, s.folio, s.seller_id, u.name, s.subtotal, s.discount, s.discount_note,
			s.total, s.payment_method_id, pm.name, s.amount_tendered, s.change, s.status,
			s.created_at
		FROM sales s
		JOIN users u ON u.id = s.seller_id
		JOIN payment_methods pm ON pm.id = s.payment_method_id
		WHERE s.id = $1`
	var s Sale
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.Folio, &s.SellerID, &s.SellerName, &s.Subtotal, &s.Discount,
		&s.DiscountNote, &s.Total, &s.PaymentMethodID, &s.PaymentMethodName,
		&s.AmountTendered, &s.Change, &s.Status, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}

	const lq = `
		SELECT id, sale_id, product_id, size_id, product_name, size_name,
			unit_price, quantity, subtotal
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id`
	rows, err := r.pool.Query(ctx, lq, id)
	if err != nil {
		return nil, fmt.Errorf("get sale items %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(
			&line.ID, &line.SaleID, &line.ProductID, &line.SizeID,
			&line.ProductName, &line.SizeName, &line.UnitPrice, &line.Quantity, &line.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		s.Lines = append(s.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.NumItems = len(s.Lines)
	return &s, nil
}

func (r *Repository) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM payment_methods WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()
	var out []PaymentMethod
	for rows.Next() {
		var pm PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.Name); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		out = append(out, pm)
	}
	return out, rows.Err()
}

func (r *Repository) ListSellers(ctx context.Context) ([]Seller, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM users WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	defer rows.Close()
	var out []Seller
	for rows.Next() {
		var s Seller
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
