package handler

import (
	"net/http"

	"mdmportal/internal/service"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	search service.SearchService
}

func NewSearchHandler(search service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/matgroups/search/", h.SearchGroups)
}

// SearchGroups ranks material groups against a free-text query
// @Summary      Search material groups
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SearchRequest  true  "Query"
// @Success      200      {object}  response.Response{data=[]service.GroupMatch}
// @Router       /api/matgroups/search/ [post]
func (h *SearchHandler) SearchGroups(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	matches, err := h.search.SearchGroups(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, matches)
}
