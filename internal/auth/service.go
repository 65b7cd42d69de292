package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
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

// Register creates a customer account with default (empty) permissions.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, fmt.Errorf("auth: email and password (min 8 chars) required: %w", shared.ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         authz.RoleCustomer,
		Permissions:  authz.DefaultPermissionsForRole(authz.RoleCustomer),
		IsActive:     true,
	}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, claims)
}

// ResolvePrincipal verifies a bearer token and loads the fresh user row.
// The stored row, not the token, is authoritative for role, permissions and
// active status.
func (s *Service) ResolvePrincipal(ctx context.Context, rawToken string) (*authz.Principal, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("auth: token revoked: %w", shared.ErrUnauthenticated)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("auth: unknown subject: %w", shared.ErrUnauthenticated)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("auth: account deactivated: %w", shared.ErrUnauthenticated)
	}
	principal := user.Principal()
	return &principal, nil
}
