package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/internal/util"
	"github.com/Skotchmaster/coffee_shop/pkg/httperr"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderHTTP struct {
	Svc      *service.OrderService
	Payments *service.PaymentService
}

// idempotencyKey prefers the body field and falls back to the header.
func idempotencyKey(c echo.Context, fromBody string) string {
	if k := strings.TrimSpace(fromBody); k != "" {
		return k
	}
	return strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
}

// placed renders a placement. A provider failure after the record was
// stored is a 502 that still carries the record so the client can retry
// the payment step alone.
func placed(c echo.Context, l *slog.Logger, event string, res transport.PlacementResponse, err error) error {
	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			l.Warn(event, "status", 502, "reason", "payment provider failed after placement", "error", err)
			return httperr.WithData(http.StatusBadGateway, httperr.CodeUpstream, "payment provider unavailable", res)
		}
		return serviceError(l, event, err)
	}
	if res.Replayed {
		return data(c, http.StatusOK, res)
	}
	return data(c, http.StatusCreated, res)
}

func orderPlacement(p *service.OrderPlacement) transport.PlacementResponse {
	return transport.PlacementResponse{Order: p.Order, Payment: p.Payment, Replayed: p.Replayed}
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		l.Warn("create_order_error", "status", 400, "error", err)
		return err
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)

	p, err := h.Svc.CreateOrder(ctx, actorFrom(c), req)
	if p == nil {
		return serviceError(l, "create_order_error", err)
	}
	if err == nil {
		l.Info("order_placed", "order_id", p.Order.ID, "replayed", p.Replayed)
	}
	return placed(c, l, "create_order_error", orderPlacement(p), err)
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	res, err := h.Svc.ListOrders(ctx, actorFrom(c), service.ListOrdersFilter{
		Status: c.QueryParam("status"),
		Page:   util.ParseIntDefault(c.QueryParam("page"), 0),
		Size:   util.ParseIntDefault(c.QueryParam("size"), 0),
	})
	if err != nil {
		return serviceError(l, "list_orders_error", err)
	}
	if res.Paged {
		return paged(c, res.Items, transport.NewPageMeta(res.Page, res.Offset, res.Limit, res.Total))
	}
	return data(c, http.StatusOK, res.Items)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := parseID(c, l, "get_order_error")
	if err != nil {
		return err
	}
	o, err := h.Svc.GetOrder(ctx, actorFrom(c), id)
	if err != nil {
		return serviceError(l, "get_order_error", err)
	}
	return data(c, http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := parseID(c, l, "update_order_status_error")
	if err != nil {
		return err
	}
	var req transport.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		l.Warn("update_order_status_error", "status", 400, "error", err)
		return err
	}

	o, err := h.Svc.UpdateStatus(ctx, actorFrom(c), id, req.Status)
	if err != nil {
		return serviceError(l, "update_order_status_error", err)
	}
	return data(c, http.StatusOK, o)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := parseID(c, l, "cancel_order_error")
	if err != nil {
		return err
	}
	o, err := h.Svc.Cancel(ctx, actorFrom(c), id)
	if err != nil {
		return serviceError(l, "cancel_order_error", err)
	}
	return data(c, http.StatusOK, o)
}

// Pay (re)creates the provider checkout for a pending online order.
func (h *OrderHTTP) Pay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay")

	id, err := parseID(c, l, "order_payment_error")
	if err != nil {
		return err
	}
	o, checkout, err := h.Payments.InitiateOrder(ctx, actorFrom(c), id)
	if err != nil {
		return serviceError(l, "order_payment_error", err)
	}
	return data(c, http.StatusOK, transport.PlacementResponse{Order: o, Payment: checkout})
}
