package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/internal/util"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Payments *PaymentService
	Events   EventPublisher
	Metrics  *metrics.Metrics
}

// OrderPlacement is the outcome of CreateOrder. Payment is set for online
// orders once the provider checkout exists.
type OrderPlacement struct {
	Order    *models.Order
	Payment  *transport.CheckoutResponse
	Replayed bool
}

type ListOrdersFilter struct {
	Status string
	Page   int
	Size   int
}

type OrderList struct {
	Items  []models.Order
	Total  int64
	Page   int
	Offset int
	Limit  int
	Paged  bool
}

func validateOrder(req transport.CreateOrderRequest) error {
	if strings.TrimSpace(req.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items required", ErrValidation)
	}
	for i, it := range req.Items {
		if it.ProductID == uuid.Nil {
			return fmt.Errorf("%w: items[%d]: product_id required", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d]: quantity must be > 0", ErrValidation, i)
		}
		if it.Quantity > models.MaxItemQuantity {
			return fmt.Errorf("%w: items[%d]: max %d", ErrQuantityLimit, i, models.MaxItemQuantity)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("%w: items[%d]: unit_price must be >= 0", ErrValidation, i)
		}
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment_method must be cod or online", ErrValidation)
	}
	return nil
}

// CreateOrder validates, prices against the catalog and persists the order
// with its items atomically. For online orders the provider checkout is
// created after commit; if that fails the persisted order is returned
// together with an ErrUpstream error so the caller can retry payment.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req transport.CreateOrderRequest) (*OrderPlacement, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "username", actor.Username)

	if err := validateOrder(req); err != nil {
		return nil, err
	}
	if req.PaymentMethod == models.PaymentMethodOnline && !s.Payments.Enabled() {
		return nil, fmt.Errorf("%w: online payment is not available", ErrValidation)
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		existing, err := s.Repo.GetOrderByIdempotencyKey(ctx, actor.Username, key)
		if err == nil {
			return s.replay(existing), nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	exists, err := s.Repo.AccountExists(ctx, actor.Username)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	items, total, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Username:       actor.Username,
		Location:       strings.TrimSpace(req.Location),
		Notes:          req.Notes,
		Price:          total,
		PaymentMethod:  req.PaymentMethod,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.InitialPaymentStatus(req.PaymentMethod),
		IdempotencyKey: strPtr(key),
		Items:          items,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repo.ErrDuplicate) && key != "" {
			if existing, gerr := s.Repo.GetOrderByIdempotencyKey(ctx, actor.Username, key); gerr == nil {
				return s.replay(existing), nil
			}
		}
		l.Error("create_order_error", "status", 500, "reason", "cannot persist order", "error", err)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.Metrics.OrderCreated(string(order.PaymentMethod), order.Price)
	publish(ctx, s.Events, mykafka.TopicOrders, order.ID.String(),
		mykafka.NewEvent("order_created", order.Username, map[string]any{
			"order_id":       order.ID,
			"price":          order.Price,
			"items":          len(order.Items),
			"payment_method": order.PaymentMethod,
		}))

	placement := &OrderPlacement{Order: order}
	if order.PaymentMethod == models.PaymentMethodOnline {
		checkout, err := s.Payments.AttachOrder(ctx, order)
		if err != nil {
			l.Warn("create_order_payment_error", "status", 502, "order_id", order.ID, "error", err)
			return placement, err
		}
		placement.Payment = checkout
	}

	l.Info("create_order_success", "order_id", order.ID, "price", order.Price)
	return placement, nil
}

// priceItems snapshots catalog prices and returns the order total. A client
// price, when sent, must match the catalog.
func (s *OrderService) priceItems(ctx context.Context, reqItems []transport.OrderItemRequest) ([]models.OrderItem, int64, error) {
	ids := make([]uuid.UUID, 0, len(reqItems))
	for _, it := range reqItems {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load products: %w", err)
	}

	items := make([]models.OrderItem, 0, len(reqItems))
	for _, it := range reqItems {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
		}
		if !p.Available {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductUnavailable, p.Name)
		}
		if it.UnitPrice != 0 && it.UnitPrice != p.Price {
			return nil, 0, fmt.Errorf("%w: %s costs %d", ErrPriceMismatch, p.Name, p.Price)
		}
		price, ok := models.LinePrice(it.Quantity, p.Price)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %d x %s", ErrPriceOverflow, it.Quantity, p.Name)
		}
		items = append(items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			Price:       price,
		})
	}

	total, ok := models.SumPrices(items)
	if !ok {
		return nil, 0, ErrPriceOverflow
	}
	return items, total, nil
}

func (s *OrderService) replay(o *models.Order) *OrderPlacement {
	p := &OrderPlacement{Order: o, Replayed: true}
	if o.ProviderOrderID != nil && s.Payments.Enabled() {
		p.Payment = s.Payments.handle(*o.ProviderOrderID, o.Price)
	}
	return p
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !actor.owns(o.Username) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListOrders returns the actor's orders newest first. Without Page or Size
// every order is returned.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, f ListOrdersFilter) (*OrderList, error) {
	status := models.OrderStatus(strings.TrimSpace(f.Status))
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}

	out := &OrderList{Page: 1}
	var page repo.Page
	if f.Page > 0 || f.Size > 0 {
		out.Offset, out.Limit = util.Calculate(f.Page, f.Size)
		out.Paged = true
		if f.Page > 1 {
			out.Page = f.Page
		}
		page = repo.Page{Offset: out.Offset, Limit: out.Limit}
	}

	total, items, err := s.Repo.ListOrders(ctx, actor.Username, status, page)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out.Items, out.Total = items, total
	return out, nil
}

// UpdateStatus moves an order along its lifecycle. Customers may only
// cancel their own pending orders; admins may apply any legal transition.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status", "order_id", id)

	next := models.OrderStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	o, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if o.Status == next {
		return o, nil
	}
	if !o.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	if !actor.IsAdmin() && !(next == models.OrderStatusCancelled && o.Status == models.OrderStatusPending) {
		return nil, fmt.Errorf("%w: only pending orders can be cancelled", ErrForbidden)
	}

	if err := s.Repo.UpdateOrderStatus(ctx, id, o.Status, next); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	prev := o.Status
	if o, err = s.Repo.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	s.Metrics.StatusChanged("order", string(next))
	publish(ctx, s.Events, mykafka.TopicOrders, id.String(),
		mykafka.NewEvent("order_status_changed", o.Username, map[string]any{
			"order_id": id,
			"from":     prev,
			"to":       next,
			"by":       actor.Username,
		}))
	l.Info("update_status_success", "from", prev, "to", next)
	return o, nil
}

func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	return s.UpdateStatus(ctx, actor, id, string(models.OrderStatusCancelled))
}
