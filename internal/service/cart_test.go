package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

func TestCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	latte := env.product(t, "Latte", 180, true)
	beans := env.product(t, "Beans", 650, true)
	off := env.product(t, "Seasonal", 300, false)

	_, err := env.Cart.AddToCart(ctx, alice, latte.ID, 0)
	require.NoError(t, err)
	item, err := env.Cart.AddToCart(ctx, alice, latte.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	_, err = env.Cart.AddToCart(ctx, alice, beans.ID, 1)
	require.NoError(t, err)

	_, err = env.Cart.AddToCart(ctx, alice, off.ID, 1)
	require.ErrorIs(t, err, ErrProductUnavailable)
	_, err = env.Cart.AddToCart(ctx, alice, beans.ID, models.MaxItemQuantity+1)
	require.ErrorIs(t, err, ErrQuantityLimit)
	_, err = env.Cart.AddToCart(ctx, alice, beans.ID, models.MaxItemQuantity)
	require.ErrorIs(t, err, ErrQuantityLimit, "existing line of 1 plus the cap")
	_, err = env.Cart.AddToCart(ctx, alice, uuid.New(), 1)
	require.ErrorIs(t, err, ErrProductNotFound)

	deleted, item, err := env.Cart.DeleteOneFromCart(ctx, alice, latte.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 2, item.Quantity)

	_, _, err = env.Cart.DeleteOneFromCart(ctx, alice, off.ID)
	require.ErrorIs(t, err, ErrCartItemNotFound)

	placement, err := env.Cart.Checkout(ctx, alice, transport.CheckoutCartRequest{Location: "Store A", PaymentMethod: models.PaymentMethodCOD})
	require.NoError(t, err)
	assert.EqualValues(t, 2*180+650, placement.Order.Price)
	assert.Len(t, placement.Order.Items, 2)

	lines, err := env.Cart.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = env.Cart.Checkout(ctx, alice, transport.CheckoutCartRequest{Location: "Store A", PaymentMethod: models.PaymentMethodCOD})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCart_CheckoutFailureKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "alice", tokens.RoleUser)
	latte := env.product(t, "Latte", 180, true)

	_, err := env.Cart.AddToCart(ctx, alice, latte.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.Repo.DB.Model(&models.Product{}).Where("id = ?", latte.ID).Update("available", false).Error)

	_, err = env.Cart.Checkout(ctx, alice, transport.CheckoutCartRequest{Location: "Store A", PaymentMethod: models.PaymentMethodCOD})
	require.ErrorIs(t, err, ErrProductUnavailable)

	lines, err := env.Cart.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}
