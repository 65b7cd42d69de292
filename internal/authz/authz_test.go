package authz

import (
	"errors"
	"testing"

	"github.com/inkwell-books/inkwell/internal/shared"
)

func TestAdminHoldsEveryPermissionRegardlessOfStoredSet(t *testing.T) {
	storedSets := [][]Permission{
		nil,
		{},
		{PermViewDashboard},
	}
	for _, stored := range storedSets {
		admin := Principal{ID: 1, Role: RoleAdmin, Permissions: stored, Active: true}
		for _, tag := range AllPermissions() {
			if err := Authorize(admin, HasPermission(tag)); err != nil {
				t.Fatalf("admin with stored set %v denied %s: %v", stored, tag, err)
			}
		}
	}
}

func TestNonAdminAllowedIffTagInPermissions(t *testing.T) {
	staff := Principal{ID: 2, Role: RoleStaff, Permissions: []Permission{PermManageBooks, PermManageOrders}, Active: true}

	if err := Authorize(staff, HasPermission(PermManageBooks)); err != nil {
		t.Fatalf("expected allow for granted tag: %v", err)
	}
	err := Authorize(staff, HasPermission(PermManageUsers))
	if err == nil {
		t.Fatal("expected deny for missing tag")
	}
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("deny must wrap ErrForbidden, got %v", err)
	}
}

func TestAnyOfRoles(t *testing.T) {
	manager := Principal{ID: 3, Role: RoleManager, Active: true}

	if err := Authorize(manager, AnyOfRoles(RoleManager, RoleAdmin)); err != nil {
		t.Fatalf("expected allow: %v", err)
	}
	if err := Authorize(manager, AnyOfRoles(RoleAdmin)); !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSelfDemotionGuard(t *testing.T) {
	admin := Principal{ID: 7, Role: RoleAdmin, Active: true}

	if err := CanChangeRole(admin, admin, RoleManager); !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("self demotion must be denied, got %v", err)
	}
	// Setting own role to admin again is a no-op and allowed.
	if err := CanChangeRole(admin, admin, RoleAdmin); err != nil {
		t.Fatalf("self admin to admin should be allowed: %v", err)
	}
}

func TestCanChangeRoleDelegatesToManagePermissions(t *testing.T) {
	target := Principal{ID: 9, Role: RoleCustomer, Active: true}

	granted := Principal{ID: 4, Role: RoleManager, Permissions: []Permission{PermManagePermissions}, Active: true}
	if err := CanChangeRole(granted, target, RoleStaff); err != nil {
		t.Fatalf("actor with manage_permissions should be allowed: %v", err)
	}

	plain := Principal{ID: 5, Role: RoleManager, Permissions: DefaultPermissionsForRole(RoleManager), Active: true}
	if err := CanChangeRole(plain, target, RoleStaff); !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("manager defaults lack manage_permissions, got %v", err)
	}
}

func TestDefaultPermissionsTable(t *testing.T) {
	cases := []struct {
		role Role
		want []Permission
	}{
		{RoleAdmin, AllPermissions()},
		{RoleManager, []Permission{PermViewDashboard, PermManageBooks, PermManageOrders, PermViewAnalytics, PermExportData}},
		{RoleStaff, []Permission{PermViewDashboard, PermManageBooks, PermManageOrders}},
		{RoleCustomer, nil},
	}
	for _, tc := range cases {
		got := DefaultPermissionsForRole(tc.role)
		if len(got) != len(tc.want) {
			t.Fatalf("role %s: expected %d permissions got %d", tc.role, len(tc.want), len(got))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("role %s: expected %s at %d got %s", tc.role, tc.want[i], i, got[i])
			}
		}
	}
}

func TestParseRoleAndPermission(t *testing.T) {
	if _, err := ParseRole("admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseRole("superuser"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := ParsePermission("export_data"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePermission("root"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
