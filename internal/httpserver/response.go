package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/httperr"
	"github.com/Skotchmaster/coffee_shop/pkg/middleware/auth"
)

func data(c echo.Context, status int, v any) error {
	return c.JSON(status, echo.Map{"data": v})
}

func paged(c echo.Context, v any, meta transport.PageMeta) error {
	return c.JSON(http.StatusOK, echo.Map{"data": v, "meta": meta})
}

func actorFrom(c echo.Context) service.Actor {
	return service.Actor{Username: auth.Username(c), Role: auth.Role(c)}
}

func parseID(c echo.Context, l *slog.Logger, event string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(event, "status", 400, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, httperr.New(http.StatusBadRequest, httperr.CodeValidation, "id is not a uuid")
	}
	return id, nil
}

// serviceError renders a service error for the client. Expected failures
// log at Warn; anything else is a 500 without internal detail.
func serviceError(l *slog.Logger, event string, err error) error {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		l.Error(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return httperr.New(status, code, msg)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, httperr.CodeInvalidCredentials, "invalid username or password"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, httperr.CodeValidation, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, httperr.CodeUnauthenticated, "authentication required"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, httperr.CodeForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, httperr.CodeNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, httperr.CodeConflict, err.Error()
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, httperr.CodeUpstream, "payment provider unavailable"
	default:
		return http.StatusInternalServerError, httperr.CodeInternal, "internal error"
	}
}
