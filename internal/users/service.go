package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

const bcryptCost = 10

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	Insert(ctx context.Context, u *User) (int64, error)
	Update(ctx context.Context, u *User) error
	SoftDelete(ctx context.Context, id int64) error
	ListRoles(ctx context.Context) ([]Role, error)
}

// Service handles account management.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Roles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// Create registers a new account with a unique email.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*User, error) {
	email := normalizeEmail(req.Email)
	taken, err := s.repo.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmailTaken, email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       req.RoleID,
		IsActive:     true,
	}
	id, err := s.repo.Insert(ctx, &u)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Update edits an account. An empty password keeps the current hash; email
// uniqueness excludes the account itself.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	taken, err := s.repo.EmailExists(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmailTaken, email)
	}
	hash := current.PasswordHash
	if req.Password != "" {
		raw, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = string(raw)
	}
	u := User{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		RoleID:       req.RoleID,
	}
	if err := s.repo.Update(ctx, &u); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete deactivates an account. Admins cannot remove themselves, so the
// system always keeps at least the acting admin.
func (s *Service) Delete(ctx context.Context, actor shared.Identity, id int64) error {
	if actor.UserID == id {
		return shared.ErrSelfDelete
	}
	return s.repo.SoftDelete(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
