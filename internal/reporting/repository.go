package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs read-only aggregation queries over committed sales. Every
// query restricts to status COMPLETED so cancelled or refunded states, if
// ever introduced, never leak into the ledger.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// rangeBounds converts inclusive calendar days to a half-open timestamp
// window.
func rangeBounds(r DateRange) (time.Time, time.Time) {
	return r.From, r.To.AddDate(0, 0, 1)
}

// headerFilters renders f as predicates on the sales alias "s". Product and
// category restrict to sales containing a matching line.
func headerFilters(sb *strings.Builder, args *[]any, f Filter) {
	add := func(clause string, v any) {
		*args = append(*args, v)
		sb.WriteString(fmt.Sprintf(clause, len(*args)))
	}
	if f.SellerID > 0 {
		add(" AND s.seller_id = $%d", f.SellerID)
	}
	if f.PaymentMethodID > 0 {
		add(" AND s.payment_method_id = $%d", f.PaymentMethodID)
	}
	if f.ProductID > 0 {
		add(" AND EXISTS (SELECT 1 FROM sale_items fi WHERE fi.sale_id = s.id AND fi.product_id = $%d)", f.ProductID)
	}
	if f.CategoryID > 0 {
		add(` AND EXISTS (SELECT 1 FROM sale_items fi
			JOIN products fp ON fp.id = fi.product_id
			WHERE fi.sale_id = s.id AND fp.category_id = $%d)`, f.CategoryID)
	}
}

// lineFilters renders f for queries aggregating sale_items "si" joined to
// sales "s". Product and category restrict the lines themselves.
func lineFilters(sb *strings.Builder, args *[]any, f Filter) {
	add := func(clause string, v any) {
		*args = append(*args, v)
		sb.WriteString(fmt.Sprintf(clause, len(*args)))
	}
	if f.SellerID > 0 {
		add(" AND s.seller_id = $%d", f.SellerID)
	}
	if f.PaymentMethodID > 0 {
		add(" AND s.payment_method_id = $%d", f.PaymentMethodID)
	}
	if f.ProductID > 0 {
		add(" AND si.product_id = $%d", f.ProductID)
	}
	if f.CategoryID > 0 {
		add(" AND si.product_id IN (SELECT id FROM products WHERE category_id = $%d)", f.CategoryID)
	}
}

func (r *Repository) Summary(ctx context.Context, dr DateRange, f Filter, now time.Time) (Summary, error) {
	from, to := rangeBounds(dr)
	today := now.UTC().Truncate(24 * time.Hour)
	// Headers and items are aggregated separately; summing a joined header
	// total would multiply it by the line count.
	var hb strings.Builder
	hb.WriteString(`
		SELECT COUNT(*), COALESCE(SUM(s.total), 0),
			COUNT(*) FILTER (WHERE s.created_at >= $3),
			COALESCE(SUM(s.total) FILTER (WHERE s.created_at >= $3), 0)
		FROM sales s
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`)
	hargs := []any{from, to, today}
	headerFilters(&hb, &hargs, f)
	var s Summary
	if err := r.pool.QueryRow(ctx, hb.String(), hargs...).Scan(
		&s.SalesCount, &s.Revenue, &s.TodayCount, &s.TodayRevenue,
	); err != nil {
		return Summary{}, fmt.Errorf("sales summary: %w", err)
	}

	var ib strings.Builder
	ib.WriteString(`
		SELECT COALESCE(SUM(si.quantity), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`)
	iargs := []any{from, to}
	lineFilters(&ib, &iargs, f)
	if err := r.pool.QueryRow(ctx, ib.String(), iargs...).Scan(&s.ItemsSold); err != nil {
		return Summary{}, fmt.Errorf("items sold: %w", err)
	}
	if s.SalesCount > 0 {
		s.AvgTicket = s.Revenue / float64(s.SalesCount)
	}
	return s, nil
}

// DailyTotals returns per-day counts and revenue for days that had sales.
// Callers pass the result through FillDailySeries.
func (r *Repository) DailyTotals(ctx context.Context, dr DateRange, f Filter) ([]DailyPoint, error) {
	from, to := rangeBounds(dr)
	var sb strings.Builder
	sb.WriteString(`
		SELECT to_char(s.created_at::date, 'YYYY-MM-DD'), COUNT(*), COALESCE(SUM(s.total), 0)
		FROM sales s
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`)
	args := []any{from, to}
	headerFilters(&sb, &args, f)
	sb.WriteString(" GROUP BY s.created_at::date ORDER BY s.created_at::date")
	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()
	var out []DailyPoint
	for rows.Next() {
		var p DailyPoint
		if err := rows.Scan(&p.Date, &p.Count, &p.Total); err != nil {
			return nil, fmt.Errorf("scan daily point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) TopProducts(ctx context.Context, dr DateRange, f Filter, limit int) ([]TopProduct, error) {
	from, to := rangeBounds(dr)
	var sb strings.Builder
	sb.WriteString(`
		SELECT si.product_id, si.product_name, SUM(si.quantity), COALESCE(SUM(si.subtotal), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`)
	args := []any{from, to}
	lineFilters(&sb, &args, f)
	sb.WriteString(" GROUP BY si.product_id, si.product_name ORDER BY SUM(si.quantity) DESC, si.product_name")
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()
	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Units, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) ByPaymentMethod(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	const base = `
		SELECT s.payment_method_id, pm.name, COUNT(*), COALESCE(SUM(s.total), 0)
		FROM sales s
		JOIN payment_methods pm ON pm.id = s.payment_method_id
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`
	const group = " GROUP BY s.payment_method_id, pm.name ORDER BY SUM(s.total) DESC"
	return r.headerBreakdown(ctx, base, group, dr, f)
}

func (r *Repository) BySeller(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	const base = `
		SELECT s.seller_id, u.name, COUNT(*), COALESCE(SUM(s.total), 0)
		FROM sales s
		JOIN users u ON u.id = s.seller_id
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`
	const group = " GROUP BY s.seller_id, u.name ORDER BY SUM(s.total) DESC"
	return r.headerBreakdown(ctx, base, group, dr, f)
}

func (r *Repository) ByCategory(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	const base = `
		SELECT c.id, c.name, SUM(si.quantity), COALESCE(SUM(si.subtotal), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`
	const group = " GROUP BY c.id, c.name ORDER BY SUM(si.subtotal) DESC"
	return r.lineBreakdown(ctx, base, group, dr, f)
}

func (r *Repository) BySize(ctx context.Context, dr DateRange, f Filter) ([]Breakdown, error) {
	const base = `
		SELECT si.size_id, si.size_name, SUM(si.quantity), COALESCE(SUM(si.subtotal), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.status = 'COMPLETED' AND s.created_at >= $1 AND s.created_at < $2`
	const group = " GROUP BY si.size_id, si.size_name ORDER BY SUM(si.quantity) DESC"
	return r.lineBreakdown(ctx, base, group, dr, f)
}

func (r *Repository) headerBreakdown(ctx context.Context, base, group string, dr DateRange, f Filter) ([]Breakdown, error) {
	from, to := rangeBounds(dr)
	var sb strings.Builder
	sb.WriteString(base)
	args := []any{from, to}
	headerFilters(&sb, &args, f)
	sb.WriteString(group)
	return r.queryBreakdown(ctx, sb.String(), args)
}

func (r *Repository) lineBreakdown(ctx context.Context, base, group string, dr DateRange, f Filter) ([]Breakdown, error) {
	from, to := rangeBounds(dr)
	var sb strings.Builder
	sb.WriteString(base)
	args := []any{from, to}
	lineFilters(&sb, &args, f)
	sb.WriteString(group)
	return r.queryBreakdown(ctx, sb.String(), args)
}

func (r *Repository) queryBreakdown(ctx context.Context, q string, args []any) ([]Breakdown, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sales breakdown: %w", err)
	}
	defer rows.Close()
	var out []Breakdown
	for rows.Next() {
		var b Breakdown
		if err := rows.Scan(&b.Key, &b.Label, &b.Count, &b.Total); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LowStock lists active variants at or below the threshold.
func (r *Repository) LowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	const q = `
		SELECT ps.product_id, p.name, sz.name, ps.stock
		FROM product_sizes ps
		JOIN products p ON p.id = ps.product_id AND p.is_active
		JOIN sizes sz ON sz.id = ps.size_id
		WHERE ps.stock <= $1
		ORDER BY ps.stock, p.name, sz.sort_order`
	rows, err := r.pool.Query(ctx, q, threshold)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	defer rows.Close()
	var out []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.SizeName, &item.Stock); err != nil {
			return nil, fmt.Errorf("scan low stock item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
