package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

type AccountHTTP struct {
	Svc *service.AccountService
}

func (h *AccountHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.get")

	acc, err := h.Svc.GetProfile(ctx, actorFrom(c))
	if err != nil {
		return serviceError(l, "get_account_error", err)
	}
	return data(c, http.StatusOK, acc)
}

func (h *AccountHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update")

	var req transport.UpdateAccountRequest
	if err := bind(c, &req); err != nil {
		l.Warn("update_account_error", "status", 400, "error", err)
		return err
	}

	acc, err := h.Svc.UpdateProfile(ctx, actorFrom(c), req)
	if err != nil {
		return serviceError(l, "update_account_error", err)
	}
	l.Info("account_updated")
	return data(c, http.StatusOK, acc)
}
