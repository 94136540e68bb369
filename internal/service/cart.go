package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

type CartService struct {
	Repo   *repo.GormRepo
	Orders *OrderService
}

func (s *CartService) GetCart(ctx context.Context, actor Actor) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, actor.Username)
}

func (s *CartService) AddToCart(ctx context.Context, actor Actor, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	if quantity > models.MaxItemQuantity {
		return nil, fmt.Errorf("%w: max %d", ErrQuantityLimit, models.MaxItemQuantity)
	}

	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !p.Available {
		return nil, ErrProductUnavailable
	}

	item := &models.CartItem{Username: actor.Username, ProductID: productID, Quantity: quantity}
	if err := s.Repo.AddToCart(ctx, item, models.MaxItemQuantity); err != nil {
		if errors.Is(err, repo.ErrLimitExceeded) {
			return nil, fmt.Errorf("%w: max %d", ErrQuantityLimit, models.MaxItemQuantity)
		}
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	item.Product = p
	return item, nil
}

// DeleteOneFromCart decrements the line and reports whether it is gone.
func (s *CartService) DeleteOneFromCart(ctx context.Context, actor Actor, productID uuid.UUID) (bool, *models.CartItem, error) {
	if productID == uuid.Nil {
		return false, nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}

	deleted, item, err := s.Repo.RemoveOneFromCart(ctx, actor.Username, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil, ErrCartItemNotFound
		}
		return false, nil, err
	}
	return deleted, item, nil
}

func (s *CartService) ClearCart(ctx context.Context, actor Actor) error {
	return s.Repo.ClearCart(ctx, actor.Username)
}

// Checkout places an order for everything in the cart at catalog prices
// and empties the cart once the order is persisted.
func (s *CartService) Checkout(ctx context.Context, actor Actor, req transport.CheckoutCartRequest) (*OrderPlacement, error) {
	l := logging.FromContext(ctx).With("svc", "cart.checkout", "username", actor.Username)

	lines, err := s.Repo.GetCart(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	items := make([]transport.OrderItemRequest, 0, len(lines))
	for _, line := range lines {
		items = append(items, transport.OrderItemRequest{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	placement, err := s.Orders.CreateOrder(ctx, actor, transport.CreateOrderRequest{
		Location:       req.Location,
		Notes:          req.Notes,
		Items:          items,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
	})
	if placement == nil {
		return nil, err
	}

	if !placement.Replayed {
		if cerr := s.Repo.ClearCart(ctx, actor.Username); cerr != nil {
			l.Error("checkout_clear_cart_error", "order_id", placement.Order.ID, "error", cerr)
		}
	}
	return placement, err
}
