package service

import (
	"context"
	"fmt"
	"strings"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"
)

// --- DTOs ---

type UpdateRolePermissionsRequest struct {
	PermissionCodes []string `json:"permission_codes" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

// RoleService manages the permission grants behind each fixed role.
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleName string, req UpdateRolePermissionsRequest) (RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

type roleService struct {
	roles repository.RoleRepository
}

func NewRoleService(roles repository.RoleRepository) RoleService {
	return &roleService{roles: roles}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

// UpdateRolePermissions replaces the grants of roleName. The admin role always keeps
// users.manage so it cannot lock itself out.
func (s *roleService) UpdateRolePermissions(ctx context.Context, roleName string, req UpdateRolePermissionsRequest) (RoleResponse, error) {
	name := strings.ToUpper(strings.TrimSpace(roleName))
	codes := req.PermissionCodes
	if name == model.RoleAdmin && !contains(codes, model.PermUsersManage) {
		return RoleResponse{}, validationErrorf("the ADMIN role must keep %s", model.PermUsersManage)
	}

	role, err := s.roles.ReplacePermissions(ctx, name, codes)
	if err != nil {
		return RoleResponse{}, lookup(err, "role")
	}
	return toRoleResponse(*role), nil
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.roles.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("role '%s' not found: %w", roleName, err)
	}
	return codes, nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		CreatedAt:   formatTime(r.CreatedAt),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
