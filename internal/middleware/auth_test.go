package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mdmportal/internal/auth"
	"mdmportal/internal/logger"
	"mdmportal/pkg/authz"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	perms []authz.Permission
	calls int
}

func (s *countingSource) PermissionSet(context.Context) ([]authz.Permission, error) {
	s.calls++
	return s.perms, nil
}

func setup(t *testing.T, src *countingSource) (*gin.Engine, *Guard, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager("s3cret", time.Hour)
	guard := NewGuard(tokens, src, authz.NewEvaluator(), logger.Discard())

	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/me", guard.RequireAuth(), ok)
	r.GET("/sap", guard.RequireRole("MDGT", "Admin"), ok)
	r.DELETE("/materials", guard.RequireGrant(authz.ResourceMaterial, authz.ActionDelete), ok)
	return r, guard, tokens
}

func do(t *testing.T, r http.Handler, method, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func issue(t *testing.T, tokens *auth.TokenManager, role string) string {
	t.Helper()
	tok, _, err := tokens.Issue(1, role, "n", "")
	require.NoError(t, err)
	return tok
}

func TestRequireAuth(t *testing.T) {
	r, _, tokens := setup(t, &countingSource{})

	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/me", ""))
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/me", "garbage"))
	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodGet, "/me", issue(t, tokens, "Employee")))
}

func TestRequireRole(t *testing.T) {
	r, _, tokens := setup(t, &countingSource{})

	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/sap", issue(t, tokens, "Employee")))
	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodGet, "/sap", issue(t, tokens, "MDGT")))
}

func TestRequireGrant_UsesCachedEvaluatorSet(t *testing.T) {
	src := &countingSource{perms: []authz.Permission{{
		Resource:      authz.ResourceMaterial,
		TemplateRoles: map[string]authz.Grant{"Admin": {Enabled: true}},
	}}}
	r, guard, tokens := setup(t, src)
	admin := issue(t, tokens, "Admin")

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/materials", admin))
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodDelete, "/materials", issue(t, tokens, "MDGT")))
	assert.Equal(t, 1, src.calls)

	src.perms = nil
	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/materials", admin))

	guard.ClearPermissionCache()
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodDelete, "/materials", admin))
	assert.Equal(t, 2, src.calls)
}
