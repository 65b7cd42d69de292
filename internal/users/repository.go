package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, role, permissions, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var user User
	var perms []string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &perms, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	user.Permissions = make([]authz.Permission, len(perms))
	for i, p := range perms {
		user.Permissions[i] = authz.Permission(p)
	}
	return user, nil
}

// List returns a page of users ordered by id plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Get fetches a single user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func permStrings(perms []authz.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// UpdateRole sets role and permissions in one statement.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role authz.Role, perms []authz.Permission) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, permissions = $3, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, string(role), permStrings(perms))
	return scanUser(row)
}

// UpdatePermissions replaces the explicit permission list.
func (r *Repository) UpdatePermissions(ctx context.Context, id int64, perms []authz.Permission) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET permissions = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, permStrings(perms))
	return scanUser(row)
}

// SetActive toggles the account's active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, active)
	return scanUser(row)
}
