package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	items, err := h.Svc.GetCart(ctx, actorFrom(c))
	if err != nil {
		return serviceError(l, "get_cart_error", err)
	}
	return data(c, http.StatusOK, items)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := bind(c, &req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return err
	}

	item, err := h.Svc.AddToCart(ctx, actorFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		return serviceError(l, "add_to_cart_error", err)
	}
	return data(c, http.StatusOK, item)
}

func (h *CartHTTP) DeleteOne(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete_one")

	id, err := parseID(c, l, "delete_from_cart_error")
	if err != nil {
		return err
	}
	deleted, item, err := h.Svc.DeleteOneFromCart(ctx, actorFrom(c), id)
	if err != nil {
		return serviceError(l, "delete_from_cart_error", err)
	}

	res := transport.DeleteOneFromCartResponse{ProductID: id, Deleted: deleted}
	if item != nil && !deleted {
		res.Quantity = item.Quantity
	}
	return data(c, http.StatusOK, res)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.ClearCart(ctx, actorFrom(c)); err != nil {
		return serviceError(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	var req transport.CheckoutCartRequest
	if err := bind(c, &req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return err
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)

	p, err := h.Svc.Checkout(ctx, actorFrom(c), req)
	if p == nil {
		return serviceError(l, "checkout_error", err)
	}
	return placed(c, l, "checkout_error", orderPlacement(p), err)
}
