package portal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"mdmportal/pkg/authz"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRoles are the roles allowed to hold a portal session.
var DefaultRoles = []string{"Admin", "MDGT", "Employee"}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the identity behind the current session.
type User struct {
	EmpID   uint   `json:"emp_id"`
	Name    string `json:"emp_name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Company string `json:"company_name"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Employee  User      `json:"employee"`
}

// Session holds the token, the user and the permission snapshot. Build one
// at startup and pass it to whatever needs it.
type Session struct {
	client    *Client
	evaluator *authz.Evaluator
	allowed   map[string]bool
	now       func() time.Time

	mu      sync.RWMutex
	token   string
	expires time.Time
	user    *User
	perms   []authz.Permission
	loaded  bool
	hooks   []func()
}

type SessionOption func(*Session)

// WithAllowedRoles replaces DefaultRoles.
func WithAllowedRoles(roles ...string) SessionOption {
	return func(s *Session) {
		s.allowed = make(map[string]bool, len(roles))
		for _, r := range roles {
			s.allowed[r] = true
		}
	}
}

func WithEvaluator(e *authz.Evaluator) SessionOption {
	return func(s *Session) { s.evaluator = e }
}

// NewSession binds a session to client. Authenticated client calls take
// their token from it from now on.
func NewSession(client *Client, opts ...SessionOption) *Session {
	s := &Session{client: client, evaluator: authz.NewEvaluator(), now: time.Now}
	WithAllowedRoles(DefaultRoles...)(s)
	for _, opt := range opts {
		opt(s)
	}
	client.attach(s.bearer, s.forceLogout)
	return s
}

// Login exchanges credentials for a token and loads the permission set.
func (s *Session) Login(ctx context.Context, cred Credentials) (*User, error) {
	if cred.Email == "" || cred.Password == "" {
		return nil, &ValidationError{Msg: "email and password are required"}
	}

	var res loginResponse
	err := s.client.DoPublic(ctx, http.MethodPost, "/employee/login/", cred, &res)
	if err != nil {
		var pe *PermissionError
		if errors.As(err, &pe) {
			return nil, &AuthError{Msg: pe.Msg}
		}
		return nil, err
	}
	if res.Token == "" {
		return nil, &AuthError{Msg: "no token in login response"}
	}
	if err := s.adopt(res.Token, res.Employee); err != nil {
		return nil, err
	}
	if err := s.ReloadPermissions(ctx); err != nil {
		s.Logout()
		return nil, err
	}
	return s.User(), nil
}

// Restore resumes a session from a saved token.
func (s *Session) Restore(ctx context.Context, token string) (*User, error) {
	exp, err := tokenExpiry(token)
	if err != nil {
		return nil, err
	}
	if !exp.IsZero() && !s.now().Before(exp) {
		return nil, &AuthError{Msg: "session expired"}
	}

	var me User
	if err := s.client.send(ctx, http.MethodGet, "/employee/me/", token, nil, &me); err != nil {
		return nil, err
	}
	if err := s.adopt(token, me); err != nil {
		return nil, err
	}
	if err := s.ReloadPermissions(ctx); err != nil {
		s.Logout()
		return nil, err
	}
	return s.User(), nil
}

func (s *Session) adopt(token string, user User) error {
	if user.Role == "" {
		return &AuthError{Msg: "account is pending role approval"}
	}
	if !s.allowed[user.Role] {
		return &AuthError{Msg: "role " + user.Role + " may not use the portal"}
	}
	exp, err := tokenExpiry(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expires = exp
	s.user = &user
	s.perms = nil
	s.loaded = false
	return nil
}

// tokenExpiry reads exp without verifying the signature; the server does
// the verification.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, &AuthError{Msg: "malformed token"}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// ReloadPermissions refreshes the permission snapshot.
func (s *Session) ReloadPermissions(ctx context.Context) error {
	var perms []authz.Permission
	if err := s.client.Do(ctx, http.MethodGet, "/permissions/", nil, &perms); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perms = perms
	s.loaded = true
	return nil
}

// CheckPermission never blocks on the network and denies until the
// permission set has loaded.
func (s *Session) CheckPermission(resource, action string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded || s.user == nil {
		return false
	}
	return s.evaluator.Allowed(s.perms, s.user.Role, resource, action)
}

// Logout clears the session and runs the logout hooks.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.expires = time.Time{}
	s.user = nil
	s.perms = nil
	s.loaded = false
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	for _, h := range hooks {
		h()
	}
}

// OnLogout registers fn to run on every logout, forced or not.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Session) forceLogout() {
	if s.Authenticated() {
		s.Logout()
	}
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// Token returns the bearer token, for callers that persist it.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) bearer() (string, error) {
	s.mu.RLock()
	token, exp := s.token, s.expires
	s.mu.RUnlock()

	if token == "" {
		return "", &AuthError{Msg: "not logged in"}
	}
	if !exp.IsZero() && !s.now().Before(exp) {
		s.forceLogout()
		return "", &AuthError{Msg: "session expired"}
	}
	return token, nil
}
