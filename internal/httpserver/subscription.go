package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

type SubscriptionHTTP struct {
	Svc      *service.SubscriptionService
	Payments *service.PaymentService
}

func (h *SubscriptionHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subscription.create")

	var req transport.CreateSubscriptionRequest
	if err := bind(c, &req); err != nil {
		l.Warn("create_subscription_error", "status", 400, "error", err)
		return err
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)

	p, err := h.Svc.CreateSubscription(ctx, actorFrom(c), req)
	if p == nil {
		return serviceError(l, "create_subscription_error", err)
	}
	if err == nil {
		l.Info("subscription_placed", "subscription_id", p.Subscription.ID, "replayed", p.Replayed)
	}
	res := transport.PlacementResponse{Subscription: p.Subscription, Payment: p.Payment, Replayed: p.Replayed}
	return placed(c, l, "create_subscription_error", res, err)
}

func (h *SubscriptionHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subscription.list")

	subs, err := h.Svc.ListSubscriptions(ctx, actorFrom(c))
	if err != nil {
		return serviceError(l, "list_subscriptions_error", err)
	}
	return data(c, http.StatusOK, subs)
}

func (h *SubscriptionHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subscription.get")

	id, err := parseID(c, l, "get_subscription_error")
	if err != nil {
		return err
	}
	sub, err := h.Svc.GetSubscription(ctx, actorFrom(c), id)
	if err != nil {
		return serviceError(l, "get_subscription_error", err)
	}
	return data(c, http.StatusOK, sub)
}

func (h *SubscriptionHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subscription.update_status")

	id, err := parseID(c, l, "update_subscription_status_error")
	if err != nil {
		return err
	}
	var req transport.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		l.Warn("update_subscription_status_error", "status", 400, "error", err)
		return err
	}

	sub, err := h.Svc.UpdateStatus(ctx, actorFrom(c), id, req.Status)
	if err != nil {
		return serviceError(l, "update_subscription_status_error", err)
	}
	return data(c, http.StatusOK, sub)
}

func (h *SubscriptionHTTP) Pay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "subscription.pay")

	id, err := parseID(c, l, "subscription_payment_error")
	if err != nil {
		return err
	}
	sub, checkout, err := h.Payments.InitiateSubscription(ctx, actorFrom(c), id)
	if err != nil {
		return serviceError(l, "subscription_payment_error", err)
	}
	return data(c, http.StatusOK, transport.PlacementResponse{Subscription: sub, Payment: checkout})
}
