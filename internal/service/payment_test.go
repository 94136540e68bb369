package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/payment"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

func onlineOrder(t *testing.T, env *testEnv, actor Actor) *OrderPlacement {
	t.Helper()
	p := env.product(t, "Beans "+actor.Username, 650, true)
	req := codOrder(transport.OrderItemRequest{ProductID: p.ID, Quantity: 1})
	req.PaymentMethod = models.PaymentMethodOnline
	placement, err := env.Orders.CreateOrder(context.Background(), actor, req)
	require.NoError(t, err)
	require.NotNil(t, placement.Payment)
	return placement
}

func callback(providerOrderID, paymentID string) PaymentCallback {
	return PaymentCallback{
		ProviderOrderID:   providerOrderID,
		ProviderPaymentID: paymentID,
		Signature:         payment.Sign([]byte(providerOrderID+"|"+paymentID), testKeySecret),
	}
}

func TestConfirm_MarksOrderPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	placement := onlineOrder(t, env, alice)

	res, err := env.Payments.Confirm(ctx, alice, callback(placement.Payment.ProviderOrderID, "pay_1"))
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.False(t, res.Replayed)
	assert.Equal(t, models.PaymentStatusPaid, res.Order.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, res.Order.Status)
	require.NotNil(t, res.Order.PaymentID)
	assert.Equal(t, "pay_1", *res.Order.PaymentID)
	assert.Equal(t, []string{"payment_captured"}, env.Events.types(mykafka.TopicPayments))

	again, err := env.Payments.Confirm(ctx, alice, callback(placement.Payment.ProviderOrderID, "pay_1"))
	require.NoError(t, err)
	assert.True(t, again.Replayed)

	_, err = env.Payments.Confirm(ctx, alice, callback(placement.Payment.ProviderOrderID, "pay_2"))
	require.ErrorIs(t, err, ErrConflict)
	assert.Len(t, env.Events.types(mykafka.TopicPayments), 1)
}

func TestConfirm_InvalidSignatureChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	placement := onlineOrder(t, env, alice)

	cb := callback(placement.Payment.ProviderOrderID, "pay_1")
	cb.Signature = payment.Sign([]byte("forged"), testKeySecret)

	_, err := env.Payments.Confirm(ctx, alice, cb)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.ErrorIs(t, err, ErrValidation)

	stored, err := env.Repo.GetOrder(ctx, placement.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestConfirm_ScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.account(t, "alice", tokens.RoleUser)
	bob := env.account(t, "bob", tokens.RoleUser)
	placement := onlineOrder(t, env, alice)

	_, err := env.Payments.Confirm(context.Background(), bob, callback(placement.Payment.ProviderOrderID, "pay_1"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.Payments.Confirm(context.Background(), bob, callback("order_unknown", "pay_1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConfirm_Subscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	e1 := env.equipment(t, "E1", 1200, 4000, 500, true)

	req := subscriptionRequest(e1.ID, models.SubscriptionWeekly)
	req.PaymentMethod = models.PaymentMethodOnline
	placement, err := env.Subscriptions.CreateSubscription(ctx, alice, req)
	require.NoError(t, err)

	res, err := env.Payments.Confirm(ctx, alice, callback(placement.Payment.ProviderOrderID, "pay_s"))
	require.NoError(t, err)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, models.PaymentStatusPaid, res.Subscription.PaymentStatus)
	assert.Equal(t, models.SubscriptionStatusActive, res.Subscription.Status)
}

func webhookBody(event, providerOrderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"amount":650,"status":"captured"}}}}`,
		event, paymentID, providerOrderID))
}

func TestHandleWebhook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	placement := onlineOrder(t, env, alice)

	body := webhookBody(payment.EventPaymentCaptured, placement.Payment.ProviderOrderID, "pay_w")

	_, err := env.Payments.HandleWebhook(ctx, body, payment.Sign(body, "wrong"))
	require.ErrorIs(t, err, ErrInvalidSignature)

	handled, err := env.Payments.HandleWebhook(ctx, body, payment.Sign(body, testWebhookSecret))
	require.NoError(t, err)
	assert.True(t, handled)

	stored, err := env.Repo.GetOrder(ctx, placement.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)

	other := webhookBody("payment.failed", placement.Payment.ProviderOrderID, "pay_x")
	handled, err = env.Payments.HandleWebhook(ctx, other, payment.Sign(other, testWebhookSecret))
	require.NoError(t, err)
	assert.False(t, handled)

	unknown := webhookBody(payment.EventPaymentCaptured, "order_missing", "pay_y")
	handled, err = env.Payments.HandleWebhook(ctx, unknown, payment.Sign(unknown, testWebhookSecret))
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestInitiateOrder_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	bob := env.account(t, "bob", tokens.RoleUser)
	p1 := env.product(t, "P1", 100, true)

	cod, err := env.Orders.CreateOrder(ctx, alice, codOrder(transport.OrderItemRequest{ProductID: p1.ID, Quantity: 1}))
	require.NoError(t, err)
	_, _, err = env.Payments.InitiateOrder(ctx, alice, cod.Order.ID)
	require.ErrorIs(t, err, ErrValidation)

	online := onlineOrder(t, env, alice)
	_, _, err = env.Payments.InitiateOrder(ctx, bob, online.Order.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.Payments.Confirm(ctx, alice, callback(online.Payment.ProviderOrderID, "pay_1"))
	require.NoError(t, err)
	_, _, err = env.Payments.InitiateOrder(ctx, alice, online.Order.ID)
	require.ErrorIs(t, err, ErrConflict)
}
