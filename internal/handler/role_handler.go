package handler

import (
	"net/http"

	"stockcount/internal/middleware"
	"stockcount/internal/model"
	"stockcount/internal/service"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
	menuService service.MenuService
	authz       *middleware.Authorizer
}

func NewRoleHandler(roleService service.RoleService, menuService service.MenuService, authz *middleware.Authorizer) *RoleHandler {
	return &RoleHandler{roleService: roleService, menuService: menuService, authz: authz}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles")
	roles.Use(h.authz.RequirePermission(model.PermRolesWrite))
	{
		roles.GET("", h.ListRoles)
		roles.PUT("/:id/permissions", h.UpdateRolePermissions)
	}

	router.GET("/api/permissions", h.authz.RequirePermission(model.PermRolesWrite), h.ListPermissions)
	router.GET("/api/menu", h.authz.Authenticate(), h.GetMenu)
}

// ListRoles returns every role with its permissions
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// ListPermissions returns the permission catalogue
// @Summary      List permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /api/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// UpdateRolePermissions replaces the permission set of a role
// @Summary      Update role permissions
// @Description  Replaces the permissions of a role with the given codes. Cached permissions of the role are dropped.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission codes"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/roles/{id}/permissions [put]
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	role, err := h.roleService.UpdateRolePermissions(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.authz.InvalidateRole(role.Name)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// GetMenu returns the navigation menu visible to the caller's role
// @Summary      Get menu
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.MenuItem}
// @Router       /api/menu [get]
func (h *RoleHandler) GetMenu(c *gin.Context) {
	items, err := h.menuService.GetMenu(c.Request.Context(), middleware.UserRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}
