package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mdmportal/pkg/authz"
	"mdmportal/pkg/response"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeServer answers with the API's envelope and records what it was sent.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server
	mux *http.ServeMux

	mu     sync.Mutex
	hits   map[string]int
	bodies map[string][]byte
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{t: t, mux: http.NewServeMux(), hits: map[string]int{}, bodies: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.hits[key]++
		f.bodies[key] = body
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// handle registers an exact-path route; paths may use {name} wildcards.
func (f *fakeServer) handle(method, path string, fn func(w http.ResponseWriter, r *http.Request)) {
	if strings.HasSuffix(path, "/") {
		path += "{$}"
	}
	f.mux.HandleFunc(method+" "+path, fn)
}

func (f *fakeServer) reply(method, path string, status int, data interface{}) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, status, data)
	})
}

func (f *fakeServer) fail(method, path string, status int, msg string) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, response.Error(status, msg))
	})
}

func (f *fakeServer) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

func (f *fakeServer) body(method, path string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out map[string]interface{}
	require.NoError(f.t, json.Unmarshal(f.bodies[method+" "+path], &out))
	return out
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, response.Success(status, data))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return tok
}

// loginAs serves a login for role with perms and logs the API in.
func loginAs(t *testing.T, f *fakeServer, role string, perms ...authz.Permission) *API {
	t.Helper()
	token := signToken(t, time.Now().Add(time.Hour))
	f.reply(http.MethodPost, "/employee/login/", http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": time.Now().Add(time.Hour),
		"employee":   map[string]interface{}{"emp_id": 7, "emp_name": "Dana", "email": "dana@acme.test", "role": role},
	})
	if perms == nil {
		perms = []authz.Permission{}
	}
	f.reply(http.MethodGet, "/permissions/", http.StatusOK, perms)

	client, err := NewClient(f.srv.URL, WithLogger(quietLogger()))
	require.NoError(t, err)
	api := New(client)
	_, err = api.Session.Login(context.Background(), Credentials{Email: "dana@acme.test", Password: "secret1"})
	require.NoError(t, err)
	return api
}

func grantAll(resource, role string) authz.Permission {
	return authz.Permission{Resource: resource, TemplateRoles: map[string]authz.Grant{role: {Enabled: true}}}
}
