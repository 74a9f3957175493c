package handler

import (
	"net/http"

	"mdmportal/internal/middleware"
	"mdmportal/internal/model"
	"mdmportal/internal/service"
	"mdmportal/pkg/pagination"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	guard        *middleware.Guard
}

func NewAuditHandler(auditService service.AuditService, guard *middleware.Guard) *AuditHandler {
	return &AuditHandler{auditService: auditService, guard: guard}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.guard.RequireRole(model.RoleAdmin))
	{
		group.GET("/", h.GetAuditLogs)
	}
}

// GetAuditLogs returns a page of audit entries, newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity  query     string  false  "Filter by entity"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 10)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/audit-logs/ [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), c.Query("entity"), p)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"logs":        logs,
		"total":       total,
		"page":        p.Page,
		"limit":       p.Limit,
		"total_pages": pagination.PageCount(int(total), p.Limit),
	})
}
