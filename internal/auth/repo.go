package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, permissions, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	var perms []string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role, &perms, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.Permissions = make([]authz.Permission, len(perms))
	for i, p := range perms {
		user.Permissions[i] = authz.Permission(p)
	}
	return &user, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create inserts a new user. Duplicate emails map to shared.ErrConflict.
func (r *PGRepository) Create(ctx context.Context, user *User) (int64, error) {
	perms := make([]string, len(user.Permissions))
	for i, p := range user.Permissions {
		perms[i] = string(p)
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, permissions, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		 RETURNING id`,
		user.Email, user.Name, user.PasswordHash, string(user.Role), perms).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("auth: email already registered: %w", shared.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
