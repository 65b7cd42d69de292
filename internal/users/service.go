package users

import (
	"context"
	"strconv"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	UpdateRole(ctx context.Context, id int64, role authz.Role, perms []authz.Permission) (User, error)
	UpdatePermissions(ctx context.Context, id int64, perms []authz.Permission) (User, error)
	SetActive(ctx context.Context, id int64, active bool) (User, error)
}

// Service handles user administration business rules.
type Service struct {
	repo  RepositoryPort
	audit shared.AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// ChangeRole assigns a new role to the target user. The authorization engine
// decides (self-demotion guard plus manage_permissions on the actor) before
// anything is written. When no explicit permission list accompanies the role,
// the fixed default table applies.
func (s *Service) ChangeRole(ctx context.Context, actor authz.Principal, targetID int64, rawRole string, explicit []string) (User, error) {
	role, err := authz.ParseRole(rawRole)
	if err != nil {
		return User{}, err
	}
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return User{}, err
	}
	if err := authz.CanChangeRole(actor, target.Principal(), role); err != nil {
		return User{}, err
	}
	perms := authz.DefaultPermissionsForRole(role)
	if explicit != nil {
		perms, err = parsePermissions(explicit)
		if err != nil {
			return User{}, err
		}
	}
	updated, err := s.repo.UpdateRole(ctx, targetID, role, perms)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actor, "user.role_changed", targetID, map[string]any{
		"old_role": string(target.Role),
		"new_role": string(role),
	})
	return updated, nil
}

// SetPermissions replaces the target's explicit permission list. The handler
// gates on manage_permissions; tags are validated against the closed enum.
func (s *Service) SetPermissions(ctx context.Context, actor authz.Principal, targetID int64, raw []string) (User, error) {
	perms, err := parsePermissions(raw)
	if err != nil {
		return User{}, err
	}
	if _, err := s.repo.Get(ctx, targetID); err != nil {
		return User{}, err
	}
	updated, err := s.repo.UpdatePermissions(ctx, targetID, perms)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actor, "user.permissions_set", targetID, map[string]any{
		"permissions": raw,
	})
	return updated, nil
}

// SetActive toggles the target account.
func (s *Service) SetActive(ctx context.Context, actor authz.Principal, targetID int64, active bool) (User, error) {
	updated, err := s.repo.SetActive(ctx, targetID, active)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actor, "user.active_toggled", targetID, map[string]any{
		"active": active,
	})
	return updated, nil
}

func parsePermissions(raw []string) ([]authz.Permission, error) {
	perms := make([]authz.Permission, 0, len(raw))
	seen := make(map[authz.Permission]struct{}, len(raw))
	for _, tag := range raw {
		perm, err := authz.ParsePermission(tag)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[perm]; dup {
			continue
		}
		seen[perm] = struct{}{}
		perms = append(perms, perm)
	}
	return perms, nil
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Principal, action string, targetID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(targetID, 10),
		Meta:     meta,
	})
}
