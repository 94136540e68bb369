package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/pkg/httperr"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

var secret = []byte("gate-test-secret-0123456789abcdef")

type seen struct {
	username string
	header   string
	called   bool
}

func newServer(t *testing.T) (*echo.Echo, *seen) {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = httperr.Handler
	gate := NewGate(secret, "/api/v1/account", "/api/v1/orders", "/api/v1/admin")
	e.Use(gate.Middleware)

	s := &seen{}
	h := func(c echo.Context) error {
		s.called = true
		s.username = Username(c)
		s.header = c.Request().Header.Get(HeaderUserName)
		return c.NoContent(http.StatusOK)
	}
	e.GET("/api/v1/orders", h)
	e.GET("/api/v1/products", h)
	e.GET("/api/v1/admin/ping", h, RequireAdmin)
	return e, s
}

func issue(t *testing.T, user, role string, now time.Time) string {
	t.Helper()
	tok, _, err := tokens.Issue(user, role, secret, time.Hour, now)
	require.NoError(t, err)
	return tok
}

func do(e *echo.Echo, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGate_IsProtected(t *testing.T) {
	g := NewGate(secret, "/api/v1/account", "/api/v1/orders/")

	assert.True(t, g.IsProtected("/api/v1/account"))
	assert.True(t, g.IsProtected("/api/v1/account/x"))
	assert.True(t, g.IsProtected("/api/v1/orders"))
	assert.True(t, g.IsProtected("/api/v1/orders/1/status"))
	assert.False(t, g.IsProtected("/api/v1/accounts"))
	assert.False(t, g.IsProtected("/api/v1/products"))
}

func TestGate_Rejections(t *testing.T) {
	e, s := newServer(t)

	tests := []struct {
		name   string
		mutate func(*http.Request)
		code   string
	}{
		{name: "no token", code: httperr.CodeUnauthenticated},
		{name: "garbage bearer", mutate: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, code: httperr.CodeInvalidToken},
		{name: "wrong scheme", mutate: func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, code: httperr.CodeUnauthenticated},
		{name: "expired", mutate: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+issue(t, "alice", tokens.RoleUser, time.Now().Add(-2*time.Hour)))
		}, code: httperr.CodeTokenExpired},
		{name: "bad cookie", mutate: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: "x.y.z"}) }, code: httperr.CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*s = seen{}
			rec := do(e, "/api/v1/orders", tt.mutate)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"`+tt.code+`"`)
			assert.False(t, s.called)
		})
	}
}

func TestGate_BearerAttachesSubject(t *testing.T) {
	e, s := newServer(t)
	tok := issue(t, "alice", tokens.RoleUser, time.Now())

	rec := do(e, "/api/v1/orders", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
		r.Header.Set(HeaderUserName, "mallory")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", s.username)
	assert.Equal(t, "alice", s.header)
}

func TestGate_CookieAttachesSubject(t *testing.T) {
	e, s := newServer(t)
	tok := issue(t, "bob", tokens.RoleUser, time.Now())

	rec := do(e, "/api/v1/orders", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: tok})
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", s.username)
}

func TestGate_UnprotectedStripsSpoofedIdentity(t *testing.T) {
	e, s := newServer(t)

	rec := do(e, "/api/v1/products", func(r *http.Request) { r.Header.Set(HeaderUserName, "mallory") })

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.called)
	assert.Empty(t, s.username)
	assert.Empty(t, s.header)
}

func TestRequireAdmin(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, "/api/v1/admin/ping", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+issue(t, "alice", tokens.RoleUser, time.Now()))
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, "/api/v1/admin/ping", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+issue(t, "root", tokens.RoleAdmin, time.Now()))
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
