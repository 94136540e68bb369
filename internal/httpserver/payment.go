package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/httperr"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

const (
	HeaderWebhookSignature = "X-Razorpay-Signature"
	maxWebhookBody         = 1 << 20
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	var req transport.VerifyPaymentRequest
	if err := bind(c, &req); err != nil {
		l.Warn("verify_payment_error", "status", 400, "error", err)
		return err
	}

	res, err := h.Svc.Confirm(ctx, actorFrom(c), service.PaymentCallback{
		ProviderOrderID:   req.ProviderOrderID,
		ProviderPaymentID: req.ProviderPaymentID,
		Signature:         req.Signature,
	})
	if err != nil {
		return serviceError(l, "verify_payment_error", err)
	}

	l.Info("payment_verified", "provider_order_id", req.ProviderOrderID, "replayed", res.Replayed)
	return data(c, http.StatusOK, transport.PlacementResponse{
		Order:        res.Order,
		Subscription: res.Subscription,
		Replayed:     res.Replayed,
	})
}

// Webhook needs the raw body: the signature covers the exact bytes sent.
func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		l.Warn("webhook_error", "status", 400, "reason", "cannot read body", "error", err)
		return httperr.New(http.StatusBadRequest, httperr.CodeValidation, "invalid body")
	}

	handled, err := h.Svc.HandleWebhook(ctx, body, c.Request().Header.Get(HeaderWebhookSignature))
	if err != nil {
		return serviceError(l, "webhook_error", err)
	}
	return data(c, http.StatusOK, echo.Map{"handled": handled})
}
