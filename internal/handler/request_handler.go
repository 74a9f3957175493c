package handler

import (
	"net/http"

	"mdmportal/internal/middleware"
	"mdmportal/internal/model"
	"mdmportal/internal/service"
	"mdmportal/pkg/authz"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requests service.RequestService
	guard    *middleware.Guard
}

func NewRequestHandler(requests service.RequestService, guard *middleware.Guard) *RequestHandler {
	return &RequestHandler{requests: requests, guard: guard}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/requests")
	group.Use(h.guard.RequireAuth())
	{
		group.GET("/", h.List)
		group.POST("/", h.Create)
		group.GET("/:id/", h.Get)
		group.PUT("/:id/", h.Update)
		group.DELETE("/:id/", h.guard.RequireGrant(authz.ResourceRequest, authz.ActionDelete), h.Delete)
		group.PUT("/:id/assign-sap/", h.guard.RequireRole(model.RoleMDGT, model.RoleAdmin), h.AssignSap)
		group.GET("/:id/messages/", h.ListMessages)
		group.POST("/:id/messages/", h.PostMessage)
	}
}

// @Summary      List requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Request}
// @Router       /api/requests/ [get]
func (h *RequestHandler) List(c *gin.Context) {
	reqs, err := h.requests.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, reqs)
}

// @Summary      Create request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Request"
// @Success      201      {object}  response.Response{data=model.Request}
// @Router       /api/requests/ [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var dto service.CreateRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.requests.Create(c.Request.Context(), actorFrom(c), dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, req)
}

// @Summary      Get request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.Request}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/ [get]
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, req)
}

// Update applies a partial update
// @Summary      Update request
// @Description  Sending version enables optimistic locking; a stale version yields 409.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true  "Request ID"
// @Param        payload  body      service.UpdateRequestDTO  true  "Changes"
// @Success      200      {object}  response.Response{data=model.Request}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/ [put]
func (h *RequestHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var dto service.UpdateRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.requests.Update(c.Request.Context(), actorFrom(c), id, dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, req)
}

// @Summary      Delete request
// @Tags         requests
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  response.Response
// @Router       /api/requests/{id}/ [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.requests.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Request deleted"})
}

// @Summary      Assign SAP item
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true  "Request ID"
// @Param        payload  body      service.AssignSapRequest  true  "SAP item"
// @Success      200      {object}  response.Response{data=model.Request}
// @Router       /api/requests/{id}/assign-sap/ [put]
func (h *RequestHandler) AssignSap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body service.AssignSapRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	req, err := h.requests.AssignSapItem(c.Request.Context(), actorFrom(c), id, body.SapItem)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, req)
}

// @Summary      Conversation history
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]model.ChatMessage}
// @Router       /api/requests/{id}/messages/ [get]
func (h *RequestHandler) ListMessages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.requests.ListMessages(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, msgs)
}

// @Summary      Post chat message
// @Description  The message is stored and then pushed to /ws/requests/{id}/ subscribers.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Request ID"
// @Param        payload  body      service.PostMessageRequest  true  "Message"
// @Success      201      {object}  response.Response{data=model.ChatMessage}
// @Router       /api/requests/{id}/messages/ [post]
func (h *RequestHandler) PostMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body service.PostMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	msg, err := h.requests.PostMessage(c.Request.Context(), actorFrom(c), id, body.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, msg)
}
