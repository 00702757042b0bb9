package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// Repository defines persistence operations for categories.
type Repository interface {
	ListActive(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, category Category) (int64, error)
	Update(ctx context.Context, id int64, category Category) error
	CountActiveProducts(ctx context.Context, id int64) (int, error)
	SoftDelete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// ListActive returns active categories with their active product counts.
func (r *repository) ListActive(ctx context.Context) ([]Category, error) {
	const query = `
		SELECT c.id, c.name, c.description, c.is_active, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id AND p.is_active
		WHERE c.is_active
		GROUP BY c.id
		ORDER BY c.name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.NumProducts); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	const query = `SELECT id, name, description, is_active FROM categories WHERE id = $1 AND is_active`
	var c Category
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, category Category) (int64, error) {
	const query = `INSERT INTO categories (name, description, is_active) VALUES ($1, $2, TRUE) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, category.Name, category.Description).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, category Category) error {
	const query = `UPDATE categories SET name = $1, description = $2 WHERE id = $3 AND is_active`
	tag, err := r.pool.Exec(ctx, query, category.Name, category.Description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountActiveProducts(ctx context.Context, id int64) (int, error) {
	const query = `SELECT COUNT(*) FROM products WHERE category_id = $1 AND is_active`
	var count int
	err := r.pool.QueryRow(ctx, query, id).Scan(&count)
	return count, err
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE categories SET is_active = FALSE WHERE id = $1 AND is_active`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
