package handler

import (
	"net/http"

	"mdmportal/internal/middleware"
	"mdmportal/internal/service"
	"mdmportal/pkg/authz"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// MasterDataHandler serves list/create/update/delete for one entity family
// under path. Every route needs a token; mutations are also gated on resource.
type MasterDataHandler[T any] struct {
	path     string
	resource string
	svc      service.MasterDataService[T]
	guard    *middleware.Guard
}

func NewMasterDataHandler[T any](path, resource string, svc service.MasterDataService[T], guard *middleware.Guard) *MasterDataHandler[T] {
	return &MasterDataHandler[T]{path: path, resource: resource, svc: svc, guard: guard}
}

func (h *MasterDataHandler[T]) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group(h.path)
	group.Use(h.guard.RequireAuth())
	{
		group.GET("/", h.List)
		group.GET("/:code/", h.Get)
		group.POST("/", h.guard.RequireGrant(h.resource, authz.ActionCreate), h.Create)
		group.PUT("/:code/", h.guard.RequireGrant(h.resource, authz.ActionUpdate), h.Update)
		group.DELETE("/:code/", h.guard.RequireGrant(h.resource, authz.ActionDelete), h.Delete)
	}
}

// List godoc
// @Summary      List master data records
// @Tags         master-data
// @Produce      json
// @Param        entity  path      string  true  "materials, matgroups, mattypes, matattributes, emaildomains, supergroups or validationlists"
// @Success      200     {object}  response.Response{data=[]object}
// @Failure      401     {object}  response.Response
// @Security     BearerAuth
// @Router       /api/{entity}/ [get]
func (h *MasterDataHandler[T]) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, items)
}

func (h *MasterDataHandler[T]) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, item)
}

// Create godoc
// @Summary      Create master data record
// @Tags         master-data
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        entity   path      string  true  "Entity path"
// @Param        payload  body      object  true  "Record"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/{entity}/ [post]
func (h *MasterDataHandler[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), actorFrom(c), item)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, created)
}

// Update godoc
// @Summary      Update master data record
// @Description  The code in the payload, when present, must match the path.
// @Tags         master-data
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        entity   path      string  true  "Entity path"
// @Param        code     path      string  true  "Business code"
// @Param        payload  body      object  true  "Record"
// @Success      200      {object}  response.Response{data=object}
// @Router       /api/{entity}/{code}/ [put]
func (h *MasterDataHandler[T]) Update(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		bindError(c, err)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), actorFrom(c), c.Param("code"), item)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, updated)
}

// Delete godoc
// @Summary      Delete master data record
// @Tags         master-data
// @Security     BearerAuth
// @Param        entity  path      string  true  "Entity path"
// @Param        code    path      string  true  "Business code"
// @Success      200     {object}  response.Response
// @Router       /api/{entity}/{code}/ [delete]
func (h *MasterDataHandler[T]) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), c.Param("code")); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Deleted"})
}
