package authz

import (
	"fmt"

	"github.com/inkwell-books/inkwell/internal/shared"
)

// Role is one of the fixed store roles.
type Role string

// Store roles, lowest to highest privilege.
const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Roles returns all valid roles.
func Roles() []Role {
	return []Role{RoleCustomer, RoleStaff, RoleManager, RoleAdmin}
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	switch role {
	case RoleCustomer, RoleStaff, RoleManager, RoleAdmin:
		return role, nil
	}
	return "", fmt.Errorf("authz: unknown role %q: %w", raw, shared.ErrInvalidArgument)
}

// Permission is a fixed named capability gating one admin action category.
type Permission string

// The closed permission enumeration.
const (
	PermViewDashboard     Permission = "view_dashboard"
	PermManageBooks       Permission = "manage_books"
	PermManageOrders      Permission = "manage_orders"
	PermManageUsers       Permission = "manage_users"
	PermViewAnalytics     Permission = "view_analytics"
	PermManageSettings    Permission = "manage_settings"
	PermExportData        Permission = "export_data"
	PermManagePermissions Permission = "manage_permissions"
)

// AllPermissions returns every permission tag.
func AllPermissions() []Permission {
	return []Permission{
		PermViewDashboard,
		PermManageBooks,
		PermManageOrders,
		PermManageUsers,
		PermViewAnalytics,
		PermManageSettings,
		PermExportData,
		PermManagePermissions,
	}
}

// ParsePermission validates a raw permission tag.
func ParsePermission(raw string) (Permission, error) {
	tag := Permission(raw)
	for _, known := range AllPermissions() {
		if tag == known {
			return tag, nil
		}
	}
	return "", fmt.Errorf("authz: unknown permission %q: %w", raw, shared.ErrInvalidArgument)
}

// Principal describes the authenticated actor as resolved by the auth layer.
type Principal struct {
	ID          int64
	Role        Role
	Permissions []Permission
	Active      bool
}

// DefaultPermissionsForRole returns the fixed role to permission-set mapping
// applied whenever a role is assigned without an explicit permission list.
func DefaultPermissionsForRole(role Role) []Permission {
	switch role {
	case RoleAdmin:
		return AllPermissions()
	case RoleManager:
		return []Permission{PermViewDashboard, PermManageBooks, PermManageOrders, PermViewAnalytics, PermExportData}
	case RoleStaff:
		return []Permission{PermViewDashboard, PermManageBooks, PermManageOrders}
	default:
		return nil
	}
}

// EffectivePermissions resolves the permission set actually held by the
// principal. Admins resolve to the full tag set regardless of the stored
// list, so admin accounts predating explicit permission lists are never
// locked out. This is the only place the admin rule lives.
func EffectivePermissions(p Principal) []Permission {
	if p.Role == RoleAdmin {
		return AllPermissions()
	}
	return p.Permissions
}
