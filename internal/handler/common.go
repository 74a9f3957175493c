package handler

import (
	"errors"
	"net/http"
	"strconv"

	"mdmportal/internal/middleware"
	"mdmportal/internal/service"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP status codes. The message is
// passed through so the portal can show it verbatim.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		// the detail goes to the request log only
		_ = c.Error(err)
		response.Fail(c, status, "Internal server error")
		return
	}
	response.Fail(c, status, err.Error())
}

func bindError(c *gin.Context, err error) {
	response.Fail(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
}

func actorFrom(c *gin.Context) service.Actor {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{EmpID: claims.EmpID, Name: claims.Name, Role: claims.Role}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Fail(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
