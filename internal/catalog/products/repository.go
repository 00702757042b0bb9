package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molecula-pos/molecula-pos/internal/platform/db"
	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertProduct(ctx context.Context, p Product) (int64, error)
	UpdateProduct(ctx context.Context, id int64, p Product) error
	ReplaceSizes(ctx context.Context, productID int64, sizes []SizeStock) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a transaction with rollback on error.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListActive returns active products plus their in-stock sizes.
func (r *Repository) ListActive(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.discount_pct, p.discounted_price,
		       p.category_id, c.name, p.is_active
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.is_active`
	args := []interface{}{}
	argCount := 0

	if filter.CategoryID > 0 {
		argCount++
		query += ` AND p.category_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.CategoryID)
	}
	if filter.Search != "" {
		argCount++
		query += ` AND p.name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filter.Search+"%")
	}
	query += ` ORDER BY p.name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPct,
			&p.DiscountedPrice, &p.CategoryID, &p.CategoryName, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		sizes, err := r.sizesFor(ctx, out[i].ID, true)
		if err != nil {
			return nil, err
		}
		out[i].Sizes = sizes
		out[i].StockTotal = stockTotal(sizes)
	}
	return out, nil
}

// Get returns one active product with all of its size rows, empty ones included.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	const query = `
		SELECT p.id, p.name, p.description, p.price, p.discount_pct, p.discounted_price,
		       p.category_id, c.name, p.is_active
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.is_active`
	var p Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price,
		&p.DiscountPct, &p.DiscountedPrice, &p.CategoryID, &p.CategoryName, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}

	sizes, err := r.sizesFor(ctx, p.ID, false)
	if err != nil {
		return Product{}, err
	}
	p.Sizes = sizes
	p.StockTotal = stockTotal(sizes)
	return p, nil
}

func (r *Repository) sizesFor(ctx context.Context, productID int64, inStockOnly bool) ([]SizeStock, error) {
	query := `
		SELECT ps.size_id, s.name, ps.stock
		FROM product_sizes ps
		JOIN sizes s ON s.id = ps.size_id
		WHERE ps.product_id = $1`
	if inStockOnly {
		query += ` AND ps.stock > 0`
	}
	query += ` ORDER BY s.sort_order ASC`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []SizeStock
	for rows.Next() {
		var s SizeStock
		if err := rows.Scan(&s.SizeID, &s.SizeName, &s.Stock); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

// ListSizes returns the size catalog in display order.
func (r *Repository) ListSizes(ctx context.Context) ([]Size, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, sort_order FROM sizes ORDER BY sort_order ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []Size
	for rows.Next() {
		var s Size
		if err := rows.Scan(&s.ID, &s.Name, &s.SortOrder); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

// SoftDelete marks a product inactive. Historical sales keep their snapshots.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertProduct(ctx context.Context, p Product) (int64, error) {
	const query = `
		INSERT INTO products (name, description, price, discount_pct, discounted_price, category_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, query, p.Name, p.Description, p.Price, p.DiscountPct,
		p.DiscountedPrice, p.CategoryID).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateProduct(ctx context.Context, id int64, p Product) error {
	const query = `
		UPDATE products
		SET name = $1, description = $2, price = $3, discount_pct = $4,
		    discounted_price = $5, category_id = $6
		WHERE id = $7 AND is_active`
	tag, err := t.tx.Exec(ctx, query, p.Name, p.Description, p.Price, p.DiscountPct,
		p.DiscountedPrice, p.CategoryID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceSizes swaps the full size/stock row set of a product. The existing
// rows are locked first so an in-flight sale decrement on the same variant
// is serialized against the replacement instead of silently lost.
func (t *txRepo) ReplaceSizes(ctx context.Context, productID int64, sizes []SizeStock) error {
	if _, err := t.tx.Exec(ctx,
		`SELECT 1 FROM product_sizes WHERE product_id = $1 FOR UPDATE`, productID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx,
		`DELETE FROM product_sizes WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, s := range sizes {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO product_sizes (product_id, size_id, stock) VALUES ($1, $2, $3)`,
			productID, s.SizeID, s.Stock); err != nil {
			return err
		}
	}
	return nil
}

func stockTotal(sizes []SizeStock) int {
	total := 0
	for _, s := range sizes {
		total += s.Stock
	}
	return total
}
