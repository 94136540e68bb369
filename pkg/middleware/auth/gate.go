package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/pkg/httperr"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

const (
	CtxUsername = "username"
	CtxRole     = "role"

	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// Gate authenticates requests whose path falls under one of the protected
// prefixes. Everything else passes through untouched, apart from identity
// headers which are always stripped.
type Gate struct {
	Secret     []byte
	Protected  []string
	CookieName string
}

func NewGate(secret []byte, protected ...string) *Gate {
	return &Gate{
		Secret:     secret,
		Protected:  protected,
		CookieName: tokens.CookieName,
	}
}

func (g *Gate) IsProtected(path string) bool {
	for _, p := range g.Protected {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func (g *Gate) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		req.Header.Del(HeaderUserName)
		req.Header.Del(HeaderUserRole)

		if !g.IsProtected(req.URL.Path) {
			return next(c)
		}

		raw := g.tokenFrom(c)
		if raw == "" {
			return httperr.New(http.StatusUnauthorized, httperr.CodeUnauthenticated, "authentication required")
		}

		claims, err := tokens.Parse(raw, g.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return httperr.New(http.StatusUnauthorized, httperr.CodeTokenExpired, "token expired")
			}
			return httperr.New(http.StatusUnauthorized, httperr.CodeInvalidToken, "invalid token")
		}

		setIdentity(c, claims)
		return next(c)
	}
}

// RequireAdmin must run after the gate has annotated the request.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Username(c) == "" {
			return httperr.New(http.StatusUnauthorized, httperr.CodeUnauthenticated, "authentication required")
		}
		if Role(c) != tokens.RoleAdmin {
			return httperr.New(http.StatusForbidden, httperr.CodeForbidden, "admin access required")
		}
		return next(c)
	}
}

func (g *Gate) tokenFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	ck, err := c.Cookie(g.CookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func setIdentity(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUsername, claims.Subject)
	c.Set(CtxRole, claims.Role)

	req := c.Request()
	req.Header.Set(HeaderUserName, claims.Subject)
	req.Header.Set(HeaderUserRole, claims.Role)

	l := logging.FromContext(req.Context()).With("username", claims.Subject)
	c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))
}

func Username(c echo.Context) string {
	s, _ := c.Get(CtxUsername).(string)
	return s
}

func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}
