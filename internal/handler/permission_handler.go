package handler

import (
	"net/http"

	"mdmportal/internal/middleware"
	"mdmportal/internal/service"
	"mdmportal/pkg/authz"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	permissions service.PermissionService
	guard       *middleware.Guard
}

func NewPermissionHandler(permissions service.PermissionService, guard *middleware.Guard) *PermissionHandler {
	return &PermissionHandler{permissions: permissions, guard: guard}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/permissions")
	{
		group.GET("/", h.guard.RequireAuth(), h.List)
		group.POST("/create/", h.guard.RequireGrant(authz.ResourcePermission, authz.ActionCreate), h.Create)
		group.PUT("/:id/", h.guard.RequireGrant(authz.ResourcePermission, authz.ActionUpdate), h.Update)
		group.DELETE("/:id/", h.guard.RequireGrant(authz.ResourcePermission, authz.ActionDelete), h.Delete)
	}
}

// List returns every permission with its role grants
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Router       /permissions/ [get]
func (h *PermissionHandler) List(c *gin.Context) {
	perms, err := h.permissions.ListPermissions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, perms)
}

// @Summary      Create permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PermissionRequest  true  "Permission"
// @Success      201      {object}  response.Response{data=model.Permission}
// @Router       /permissions/create/ [post]
func (h *PermissionHandler) Create(c *gin.Context) {
	var req service.PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	perm, err := h.permissions.CreatePermission(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, perm)
}

// @Summary      Update permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Permission ID"
// @Param        payload  body      service.PermissionRequest  true  "Permission"
// @Success      200      {object}  response.Response{data=model.Permission}
// @Router       /permissions/{id}/ [put]
func (h *PermissionHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	perm, err := h.permissions.UpdatePermission(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, perm)
}

// @Summary      Delete permission
// @Tags         permissions
// @Security     BearerAuth
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  response.Response
// @Router       /permissions/{id}/ [delete]
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.permissions.DeletePermission(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Permission deleted"})
}
