package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.name, u.email, u.password_hash, u.role_id, r.name, u.is_active, u.created_at`

// List returns all active users.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users u JOIN roles r ON r.id = u.role_id WHERE u.is_active ORDER BY u.id`, userColumns)
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Get returns one active user.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1 AND u.is_active`, userColumns)
	var u User
	err := scanUser(r.pool.QueryRow(ctx, q, id), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// EmailExists reports whether an active account already uses the email,
// optionally excluding one account id.
func (r *Repository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND is_active AND id <> $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Insert creates a user and returns its id.
func (r *Repository) Insert(ctx context.Context, u *User) (int64, error) {
	const q = `
		INSERT INTO users (name, email, password_hash, role_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, now())
		RETURNING id`
	var id int64
	if err := r.pool.QueryRow(ctx, q, u.Name, u.Email, u.PasswordHash, u.RoleID).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// Update rewrites the mutable fields of a user.
func (r *Repository) Update(ctx context.Context, u *User) error {
	const q = `
		UPDATE users SET name = $2, email = $3, password_hash = $4, role_id = $5
		WHERE id = $1 AND is_active`
	tag, err := r.pool.Exec(ctx, q, u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete deactivates a user while keeping its sales history readable.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("soft delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListRoles returns all selectable roles.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt)
}
