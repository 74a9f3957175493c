package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"mdmportal/internal/auth"
	"mdmportal/pkg/authz"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	claimsKey   = "claims"
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// PermissionSource loads the full permission set.
type PermissionSource interface {
	PermissionSet(ctx context.Context) ([]authz.Permission, error)
}

// Guard authenticates requests and enforces role and permission checks.
type Guard struct {
	tokens    *auth.TokenManager
	source    PermissionSource
	evaluator *authz.Evaluator
	log       logrus.FieldLogger

	ttl       time.Duration
	now       func() time.Time
	mu        sync.Mutex
	cached    []authz.Permission
	expiresAt time.Time
}

func NewGuard(tokens *auth.TokenManager, source PermissionSource, evaluator *authz.Evaluator, log logrus.FieldLogger) *Guard {
	return &Guard{
		tokens:    tokens,
		source:    source,
		evaluator: evaluator,
		log:       log,
		ttl:       5 * time.Minute,
		now:       time.Now,
	}
}

// ClaimsFrom returns the claims stored by RequireAuth.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

func (g *Guard) authenticate(c *gin.Context) bool {
	if _, ok := ClaimsFrom(c); ok {
		return true
	}

	token, problem := bearerToken(c)
	if problem != "" {
		response.Abort(c, http.StatusUnauthorized, problem)
		return false
	}

	claims, err := g.tokens.Parse(token)
	if err != nil {
		response.Abort(c, http.StatusUnauthorized, "Invalid or expired token")
		return false
	}
	if claims.Role == "" {
		response.Abort(c, http.StatusForbidden, "Role not found in token")
		return false
	}

	c.Set(claimsKey, claims)
	c.Set(userIDKey, claims.EmpID)
	c.Set(userRoleKey, claims.Role)
	return true
}

// RequireAuth validates the bearer token and stores its claims.
func (g *Guard) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c) {
			return
		}
		c.Next()
	}
}

// OptionalAuth stores claims when a valid bearer token is present and
// otherwise lets the request through anonymously.
func (g *Guard) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, problem := bearerToken(c); problem == "" {
			if claims, err := g.tokens.Parse(token); err == nil {
				c.Set(claimsKey, claims)
				c.Set(userIDKey, claims.EmpID)
				c.Set(userRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRole lets through only the listed roles.
func (g *Guard) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c) {
			return
		}
		claims, _ := ClaimsFrom(c)
		for _, role := range allowedRoles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, "Access denied: insufficient permissions")
	}
}

// RequireGrant applies the same evaluator the portal uses client-side.
func (g *Guard) RequireGrant(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c) {
			return
		}
		claims, _ := ClaimsFrom(c)

		perms, err := g.permissions(c.Request.Context())
		if err != nil {
			g.log.WithError(err).Error("failed to load permissions")
			response.Abort(c, http.StatusInternalServerError, "Failed to verify permissions")
			return
		}

		if !g.evaluator.Allowed(perms, claims.Role, resource, action) {
			response.Abort(c, http.StatusForbidden, "Access denied: you don't have permission to "+action+" "+resource)
			return
		}
		c.Next()
	}
}

// Allows evaluates one check outside the middleware chain.
func (g *Guard) Allows(ctx context.Context, role, resource, action string) (bool, error) {
	perms, err := g.permissions(ctx)
	if err != nil {
		return false, err
	}
	return g.evaluator.Allowed(perms, role, resource, action), nil
}

func (g *Guard) permissions(ctx context.Context) ([]authz.Permission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cached != nil && g.now().Before(g.expiresAt) {
		return g.cached, nil
	}

	perms, err := g.source.PermissionSet(ctx)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []authz.Permission{}
	}
	g.cached = perms
	g.expiresAt = g.now().Add(g.ttl)
	return perms, nil
}

// ClearPermissionCache forces the next check to reload permissions.
func (g *Guard) ClearPermissionCache() {
	g.mu.Lock()
	g.cached = nil
	g.mu.Unlock()
}
