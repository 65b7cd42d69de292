package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-books/inkwell/internal/auth"
	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
)

type stubRepo struct {
	byEmail map[string]*auth.User
	byID    map[int64]*auth.User
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{byEmail: make(map[string]*auth.User), byID: make(map[int64]*auth.User), nextID: 1}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) Create(ctx context.Context, user *auth.User) (int64, error) {
	if _, ok := s.byEmail[user.Email]; ok {
		return 0, shared.ErrConflict
	}
	id := s.nextID
	s.nextID++
	copied := *user
	copied.ID = id
	s.byEmail[copied.Email] = &copied
	s.byID[id] = &copied
	return id, nil
}

func newService(t *testing.T) (*auth.Service, *stubRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	tokens := auth.NewTokenManager("test-secret", time.Hour, redisClient)
	repo := newStubRepo()
	return auth.NewService(repo, tokens), repo
}

func TestRegisterCreatesCustomerWithoutPermissions(t *testing.T) {
	svc, _ := newService(t)

	user, err := svc.Register(context.Background(), "Reader@Example.com", "bookworm1", "Reader")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "reader@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != authz.RoleCustomer {
		t.Fatalf("expected customer role got %s", user.Role)
	}
	if len(user.Permissions) != 0 {
		t.Fatalf("customers get no default permissions, got %v", user.Permissions)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Register(context.Background(), "dup@example.com", "bookworm1", "A"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), "dup@example.com", "bookworm2", "B")
	if !errors.Is(err, shared.ErrConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "short@example.com", "abc", "S")
	if !errors.Is(err, shared.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument got %v", err)
	}
}

func TestLoginAndResolvePrincipal(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Register(context.Background(), "login@example.com", "bookworm1", "L"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, user, err := svc.Login(context.Background(), "login@example.com", "bookworm1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	principal, err := svc.ResolvePrincipal(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.ID != user.ID || principal.Role != authz.RoleCustomer || !principal.Active {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Register(context.Background(), "wrong@example.com", "bookworm1", "W"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login(context.Background(), "wrong@example.com", "not-the-password")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials got %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newService(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("bookworm1"), bcrypt.MinCost)
	inactive := &auth.User{Email: "gone@example.com", PasswordHash: string(hash), Role: authz.RoleCustomer, IsActive: false}
	if _, err := repo.Create(context.Background(), inactive); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, _, err := svc.Login(context.Background(), "gone@example.com", "bookworm1")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Register(context.Background(), "revoke@example.com", "bookworm1", "R"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.Login(context.Background(), "revoke@example.com", "bookworm1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = svc.ResolvePrincipal(context.Background(), token)
	if !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated after logout got %v", err)
	}
}

func TestResolvePrincipalGarbageToken(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ResolvePrincipal(context.Background(), "not.a.token")
	if !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated got %v", err)
	}
}
