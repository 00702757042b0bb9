package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials and issues a session
// token. Unknown email and wrong password fail identically.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*shared.Identity, string, error) {
	user, err := s.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}

	// Storage keeps the role as text; reject accounts outside the closed set
	// here rather than per route.
	role, ok := shared.ParseRole(user.RoleName)
	if !ok {
		return nil, "", shared.ErrInvalidCredentials
	}

	identity := shared.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(role),
	}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, "", err
	}
	return &identity, token, nil
}
