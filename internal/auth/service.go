package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
	"github.com/tradesphere/tradesphere-crm/internal/users"
)

// Service wraps authentication business rules.
type Service struct {
	users  users.Repository
	tokens *TokenStore
}

// NewService constructs a Service.
func NewService(userRepo users.Repository, tokens *TokenStore) *Service {
	return &Service{users: userRepo, tokens: tokens}
}

// Login validates credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *users.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(ctx, Actor{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes a bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
