package handler

import (
	"log/slog"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
	auth        *middleware.Auth
	log         *slog.Logger
}

func NewRoleHandler(roleService service.RoleService, auth *middleware.Auth, log *slog.Logger) *RoleHandler {
	return &RoleHandler{roleService: roleService, auth: auth, log: log}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", h.auth.RequirePermission(model.PermUsersManage))
	{
		admin.GET("/roles", h.ListRoles)
		admin.PUT("/roles/:name/permissions", h.UpdateRolePermissions)
		admin.GET("/permissions", h.ListPermissions)
	}
}

// ListRoles returns all roles with their permissions
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, roles)
}

// ListPermissions returns every permission code
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, perms)
}

// UpdateRolePermissions replaces a role's grants and drops its cached permission set
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	name := c.Param("name")
	role, err := h.roleService.UpdateRolePermissions(c.Request.Context(), name, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.auth.ClearPermissionCache(role.Name)
	respondOK(c, role)
}
