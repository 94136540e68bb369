package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	SecureCookie bool
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bind(c, &req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return err
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return serviceError(l, "register_error", err)
	}

	h.setSession(c, res)
	l.Info("register_successful", "username", res.Account.Username)
	return data(c, http.StatusCreated, authResponse(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return serviceError(l, "login_failed", err)
	}

	h.setSession(c, res)
	l.Info("login_successful", "username", res.Account.Username)
	return data(c, http.StatusOK, authResponse(res))
}

// LogOut clears the session cookie. Access tokens are stateless, so a
// bearer token stays valid until it expires.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.logout")

	c.SetCookie(tokens.DeleteCookie(tokens.CookieName, "/", h.SecureCookie))
	l.Info("successful_logout")
	return data(c, http.StatusOK, echo.Map{"message": "logged out successfully"})
}

func (h *AuthHTTP) setSession(c echo.Context, res *service.AuthResult) {
	c.SetCookie(tokens.CreateCookie(tokens.CookieName, res.Token, "/", res.ExpiresAt, h.SecureCookie))
}

func authResponse(res *service.AuthResult) transport.AuthResponse {
	return transport.AuthResponse{
		User:      res.Account,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
	}
}
