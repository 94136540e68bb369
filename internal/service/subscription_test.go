package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

func subscriptionRequest(equipmentID uuid.UUID, typ models.SubscriptionType) transport.CreateSubscriptionRequest {
	return transport.CreateSubscriptionRequest{
		EquipmentID:      equipmentID,
		SubscriptionType: typ,
		PickupLocation:   "Store A",
		DropLocation:     "Home",
		PaymentMethod:    models.PaymentMethodCOD,
	}
}

func TestCreateSubscription_Weekly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.account(t, "alice", tokens.RoleUser)
	e1 := env.equipment(t, "E1", 1200, 4000, 500, true)

	placement, err := env.Subscriptions.CreateSubscription(context.Background(), alice, subscriptionRequest(e1.ID, models.SubscriptionWeekly))
	require.NoError(t, err)

	sub := placement.Subscription
	assert.EqualValues(t, 1200, sub.Price)
	assert.EqualValues(t, 500, sub.Deposit)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), sub.StartDate)
	assert.Equal(t, time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC), sub.EndDate)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, sub.PaymentStatus)
	assert.Equal(t, []string{"subscription_created"}, env.Events.types(mykafka.TopicSubscriptions))
	assert.EqualValues(t, 1, env.count(t, &models.Subscription{}))
}

func TestCreateSubscription_MonthlyClampsToMonthEnd(t *testing.T) {
	env := newTestEnv(t)
	env.Now = time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)
	alice := env.account(t, "alice", tokens.RoleUser)
	e1 := env.equipment(t, "E1", 1200, 4000, 0, true)

	placement, err := env.Subscriptions.CreateSubscription(context.Background(), alice, subscriptionRequest(e1.ID, models.SubscriptionMonthly))
	require.NoError(t, err)
	assert.EqualValues(t, 4000, placement.Subscription.Price)
	assert.Equal(t, time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC), placement.Subscription.EndDate)
}

func TestCreateSubscription_Rejections(t *testing.T) {
	env := newTestEnv(t)
	alice := env.account(t, "alice", tokens.RoleUser)
	e1 := env.equipment(t, "E1", 1200, 4000, 0, true)
	broken := env.equipment(t, "Broken", 1, 1, 0, false)

	bad := subscriptionRequest(e1.ID, "DAILY")
	noDrop := subscriptionRequest(e1.ID, models.SubscriptionWeekly)
	noDrop.DropLocation = ""

	tests := []struct {
		name  string
		actor Actor
		req   transport.CreateSubscriptionRequest
		want  error
	}{
		{name: "unknown equipment", actor: alice, req: subscriptionRequest(uuid.New(), models.SubscriptionWeekly), want: ErrEquipmentNotFound},
		{name: "unavailable equipment", actor: alice, req: subscriptionRequest(broken.ID, models.SubscriptionWeekly), want: ErrEquipmentUnavailable},
		{name: "bad type", actor: alice, req: bad, want: ErrValidation},
		{name: "missing drop location", actor: alice, req: noDrop, want: ErrValidation},
		{name: "unknown account", actor: Actor{Username: "ghost"}, req: subscriptionRequest(e1.ID, models.SubscriptionWeekly), want: ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Subscriptions.CreateSubscription(context.Background(), tt.actor, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, env.count(t, &models.Subscription{}))
}

func TestCreateSubscription_OnlineChargesPriceAndDeposit(t *testing.T) {
	env := newTestEnv(t)
	alice := env.account(t, "alice", tokens.RoleUser)
	e1 := env.equipment(t, "E1", 1200, 4000, 500, true)

	req := subscriptionRequest(e1.ID, models.SubscriptionWeekly)
	req.PaymentMethod = models.PaymentMethodOnline
	req.IdempotencyKey = "sub-1"

	placement, err := env.Subscriptions.CreateSubscription(context.Background(), alice, req)
	require.NoError(t, err)
	require.NotNil(t, placement.Payment)
	assert.EqualValues(t, 1700, placement.Payment.Amount)
	assert.Equal(t, models.PaymentStatusPending, placement.Subscription.PaymentStatus)

	again, err := env.Subscriptions.CreateSubscription(context.Background(), alice, req)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, placement.Subscription.ID, again.Subscription.ID)
	assert.Equal(t, placement.Payment.ProviderOrderID, again.Payment.ProviderOrderID)
}

func TestSubscriptionUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	admin := env.account(t, "root", tokens.RoleAdmin)
	e1 := env.equipment(t, "E1", 1200, 4000, 0, true)

	place := func() *models.Subscription {
		t.Helper()
		pl, err := env.Subscriptions.CreateSubscription(ctx, alice, subscriptionRequest(e1.ID, models.SubscriptionWeekly))
		require.NoError(t, err)
		return pl.Subscription
	}

	sub := place()
	_, err := env.Subscriptions.UpdateStatus(ctx, alice, sub.ID, "PAUSED")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.Subscriptions.UpdateStatus(ctx, alice, sub.ID, "COMPLETED")
	require.ErrorIs(t, err, ErrForbidden)

	got, err := env.Subscriptions.UpdateStatus(ctx, alice, sub.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, got.Status)

	_, err = env.Subscriptions.UpdateStatus(ctx, admin, sub.ID, "ACTIVE")
	require.ErrorIs(t, err, ErrInvalidTransition)

	other := place()
	got, err = env.Subscriptions.UpdateStatus(ctx, admin, other.ID, "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCompleted, got.Status)

	list, err := env.Subscriptions.ListSubscriptions(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, s := range list {
		require.NotNil(t, s.Equipment)
		assert.Equal(t, "E1", s.Equipment.Name)
	}
}
