package auth

import (
	"time"

	"github.com/inkwell-books/inkwell/internal/authz"
)

// User represents a store account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         authz.Role
	Permissions  []authz.Permission
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal projects the user into the authorization engine's view.
func (u *User) Principal() authz.Principal {
	return authz.Principal{
		ID:          u.ID,
		Role:        u.Role,
		Permissions: u.Permissions,
		Active:      u.IsActive,
	}
}
