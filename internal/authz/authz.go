// Package authz implements the pure authorization engine: role and
// permission predicates over a Principal, with no storage dependency.
package authz

import (
	"fmt"

	"github.com/inkwell-books/inkwell/internal/shared"
)

// Requirement is a predicate a principal must satisfy.
type Requirement interface {
	check(p Principal) error
}

type hasPermission struct {
	tag Permission
}

func (r hasPermission) check(p Principal) error {
	for _, granted := range EffectivePermissions(p) {
		if granted == r.tag {
			return nil
		}
	}
	return fmt.Errorf("authz: missing permission %s: %w", r.tag, shared.ErrForbidden)
}

type anyOfRoles struct {
	roles []Role
}

func (r anyOfRoles) check(p Principal) error {
	for _, role := range r.roles {
		if p.Role == role {
			return nil
		}
	}
	return fmt.Errorf("authz: role %s not authorized: %w", p.Role, shared.ErrForbidden)
}

// HasPermission requires the principal to hold the given permission tag.
func HasPermission(tag Permission) Requirement {
	return hasPermission{tag: tag}
}

// AnyOfRoles requires the principal's role to be in the given set.
func AnyOfRoles(roles ...Role) Requirement {
	return anyOfRoles{roles: roles}
}

// Authorize gates an action: nil means allow, otherwise the returned error
// wraps shared.ErrForbidden with the deny reason. Side-effect free.
func Authorize(p Principal, req Requirement) error {
	return req.check(p)
}

// CanChangeRole decides whether actor may set target's role to newRole.
// An admin can never demote themselves away from admin; beyond that the
// decision delegates to the manage_permissions check on the actor.
func CanChangeRole(actor, target Principal, newRole Role) error {
	if actor.ID == target.ID && actor.Role == RoleAdmin && newRole != RoleAdmin {
		return fmt.Errorf("authz: admins cannot demote themselves: %w", shared.ErrForbidden)
	}
	return Authorize(actor, HasPermission(PermManagePermissions))
}
