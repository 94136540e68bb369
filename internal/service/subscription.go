package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

type SubscriptionService struct {
	Repo     *repo.GormRepo
	Payments *PaymentService
	Events   EventPublisher
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

type SubscriptionPlacement struct {
	Subscription *models.Subscription
	Payment      *transport.CheckoutResponse
	Replayed     bool
}

func validateSubscription(req transport.CreateSubscriptionRequest) error {
	if req.EquipmentID == uuid.Nil {
		return fmt.Errorf("%w: equipment_id required", ErrValidation)
	}
	if !req.SubscriptionType.Valid() {
		return fmt.Errorf("%w: subscription_type must be WEEKLY or MONTHLY", ErrValidation)
	}
	if strings.TrimSpace(req.PickupLocation) == "" || strings.TrimSpace(req.DropLocation) == "" {
		return fmt.Errorf("%w: pickup_location and drop_location are required", ErrValidation)
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment_method must be cod or online", ErrValidation)
	}
	return nil
}

// CreateSubscription rents equipment from now for one week or one month.
// Payment and idempotency behave as in OrderService.CreateOrder.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, actor Actor, req transport.CreateSubscriptionRequest) (*SubscriptionPlacement, error) {
	l := logging.FromContext(ctx).With("svc", "subscription.create", "username", actor.Username)

	if err := validateSubscription(req); err != nil {
		return nil, err
	}
	if req.PaymentMethod == models.PaymentMethodOnline && !s.Payments.Enabled() {
		return nil, fmt.Errorf("%w: online payment is not available", ErrValidation)
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		existing, err := s.Repo.GetSubscriptionByIdempotencyKey(ctx, actor.Username, key)
		if err == nil {
			return s.replay(existing), nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	eq, err := s.Repo.GetEquipment(ctx, req.EquipmentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("load equipment: %w", err)
	}
	if !eq.Available {
		return nil, ErrEquipmentUnavailable
	}

	exists, err := s.Repo.AccountExists(ctx, actor.Username)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	price := eq.WeeklyPrice
	if req.SubscriptionType == models.SubscriptionMonthly {
		price = eq.MonthlyPrice
	}
	start := clock(s.Now)
	sub := &models.Subscription{
		Username:         actor.Username,
		EquipmentID:      eq.ID,
		SubscriptionType: req.SubscriptionType,
		StartDate:        start,
		EndDate:          models.EndDate(start, req.SubscriptionType),
		PickupLocation:   strings.TrimSpace(req.PickupLocation),
		DropLocation:     strings.TrimSpace(req.DropLocation),
		Deposit:          eq.Deposit,
		Price:            price,
		PaymentMethod:    req.PaymentMethod,
		Status:           models.SubscriptionStatusActive,
		PaymentStatus:    models.InitialPaymentStatus(req.PaymentMethod),
		IdempotencyKey:   strPtr(key),
	}
	if err := s.Repo.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, repo.ErrDuplicate) && key != "" {
			if existing, gerr := s.Repo.GetSubscriptionByIdempotencyKey(ctx, actor.Username, key); gerr == nil {
				return s.replay(existing), nil
			}
		}
		l.Error("create_subscription_error", "status", 500, "reason", "cannot persist subscription", "error", err)
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	sub.Equipment = eq

	s.Metrics.SubscriptionCreated(string(sub.SubscriptionType))
	publish(ctx, s.Events, mykafka.TopicSubscriptions, sub.ID.String(),
		mykafka.NewEvent("subscription_created", sub.Username, map[string]any{
			"subscription_id":   sub.ID,
			"equipment_id":      sub.EquipmentID,
			"subscription_type": sub.SubscriptionType,
			"price":             sub.Price,
			"end_date":          sub.EndDate,
		}))

	placement := &SubscriptionPlacement{Subscription: sub}
	if sub.PaymentMethod == models.PaymentMethodOnline {
		checkout, err := s.Payments.AttachSubscription(ctx, sub)
		if err != nil {
			l.Warn("create_subscription_payment_error", "status", 502, "subscription_id", sub.ID, "error", err)
			return placement, err
		}
		placement.Payment = checkout
	}

	l.Info("create_subscription_success", "subscription_id", sub.ID)
	return placement, nil
}

func (s *SubscriptionService) replay(sub *models.Subscription) *SubscriptionPlacement {
	p := &SubscriptionPlacement{Subscription: sub, Replayed: true}
	if sub.ProviderOrderID != nil && s.Payments.Enabled() {
		p.Payment = s.Payments.handle(*sub.ProviderOrderID, sub.Price+sub.Deposit)
	}
	return p
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, actor Actor, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.Repo.GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if !actor.owns(sub.Username) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *SubscriptionService) ListSubscriptions(ctx context.Context, actor Actor) ([]models.Subscription, error) {
	subs, err := s.Repo.ListSubscriptions(ctx, actor.Username)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateStatus ends a subscription. Customers may only cancel their own.
func (s *SubscriptionService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*models.Subscription, error) {
	next := models.SubscriptionStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	sub, err := s.GetSubscription(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == next {
		return sub, nil
	}
	if !sub.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, next)
	}
	if !actor.IsAdmin() && next != models.SubscriptionStatusCancelled {
		return nil, fmt.Errorf("%w: only cancellation is allowed", ErrForbidden)
	}

	if err := s.Repo.UpdateSubscriptionStatus(ctx, id, sub.Status, next); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("update subscription status: %w", err)
	}

	prev := sub.Status
	if sub, err = s.Repo.GetSubscription(ctx, id); err != nil {
		return nil, err
	}
	s.Metrics.StatusChanged("subscription", string(next))
	publish(ctx, s.Events, mykafka.TopicSubscriptions, id.String(),
		mykafka.NewEvent("subscription_status_changed", sub.Username, map[string]any{
			"subscription_id": id,
			"from":            prev,
			"to":              next,
			"by":              actor.Username,
		}))
	return sub, nil
}
