package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/payment"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

// PaymentService runs the server side of the online checkout handshake.
// A nil *PaymentService, or one without a provider, means online payment
// is switched off.
type PaymentService struct {
	Repo          *repo.GormRepo
	Provider      PaymentProvider
	KeySecret     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
	Events        EventPublisher
	Metrics       *metrics.Metrics
}

type PaymentCallback struct {
	ProviderOrderID   string
	ProviderPaymentID string
	Signature         string
}

// PaymentResult holds whichever record the provider order belonged to.
type PaymentResult struct {
	Order        *models.Order
	Subscription *models.Subscription
	Replayed     bool
}

func (s *PaymentService) Enabled() bool {
	return s != nil && s.Provider != nil
}

func (s *PaymentService) currency() string {
	if s.Currency == "" {
		return "INR"
	}
	return s.Currency
}

func (s *PaymentService) handle(providerOrderID string, amount int64) *transport.CheckoutResponse {
	return &transport.CheckoutResponse{
		ProviderOrderID: providerOrderID,
		Amount:          amount,
		Currency:        s.currency(),
		KeyID:           s.Provider.KeyID(),
	}
}

// createProviderOrder asks the provider for a checkout under the payment
// timeout. The receipt ties the provider order back to our record.
func (s *PaymentService) createProviderOrder(ctx context.Context, kind string, id uuid.UUID, amount int64) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("%w: online payment is not configured", ErrUpstream)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	po, err := s.Provider.CreateOrder(ctx, amount, s.currency(), "receipt_"+id.String(), map[string]string{kind + "_id": id.String()})
	if err != nil {
		s.Metrics.ProviderCall("error", time.Since(start).Seconds())
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	s.Metrics.ProviderCall("ok", time.Since(start).Seconds())
	return po.ID, nil
}

// AttachOrder creates the provider order for a freshly placed online order
// and records its id. If another request attached one first, that one wins.
func (s *PaymentService) AttachOrder(ctx context.Context, o *models.Order) (*transport.CheckoutResponse, error) {
	if o.ProviderOrderID != nil {
		return s.handle(*o.ProviderOrderID, o.Price), nil
	}

	poID, err := s.createProviderOrder(ctx, "order", o.ID, o.Price)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetOrderProviderOrderID(ctx, o.ID, poID); err != nil {
		if !errors.Is(err, repo.ErrStale) {
			return nil, fmt.Errorf("store provider order: %w", err)
		}
		cur, gerr := s.Repo.GetOrder(ctx, o.ID)
		if gerr != nil || cur.ProviderOrderID == nil {
			return nil, fmt.Errorf("store provider order: %w", err)
		}
		poID = *cur.ProviderOrderID
	}
	o.ProviderOrderID = &poID
	return s.handle(poID, o.Price), nil
}

func (s *PaymentService) AttachSubscription(ctx context.Context, sub *models.Subscription) (*transport.CheckoutResponse, error) {
	amount := sub.Price + sub.Deposit
	if sub.ProviderOrderID != nil {
		return s.handle(*sub.ProviderOrderID, amount), nil
	}

	poID, err := s.createProviderOrder(ctx, "subscription", sub.ID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetSubscriptionProviderOrderID(ctx, sub.ID, poID); err != nil {
		if !errors.Is(err, repo.ErrStale) {
			return nil, fmt.Errorf("store provider order: %w", err)
		}
		cur, gerr := s.Repo.GetSubscription(ctx, sub.ID)
		if gerr != nil || cur.ProviderOrderID == nil {
			return nil, fmt.Errorf("store provider order: %w", err)
		}
		poID = *cur.ProviderOrderID
	}
	sub.ProviderOrderID = &poID
	return s.handle(poID, amount), nil
}

// InitiateOrder retries the provider checkout for an online order that is
// still waiting for payment.
func (s *PaymentService) InitiateOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, *transport.CheckoutResponse, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}
	if !actor.owns(o.Username) {
		return nil, nil, ErrOrderNotFound
	}
	if o.PaymentMethod != models.PaymentMethodOnline {
		return nil, nil, fmt.Errorf("%w: order is cash on delivery", ErrValidation)
	}
	if o.PaymentStatus == models.PaymentStatusPaid {
		return nil, nil, fmt.Errorf("order already paid: %w", ErrConflict)
	}
	if o.Status == models.OrderStatusCancelled {
		return nil, nil, fmt.Errorf("order is cancelled: %w", ErrConflict)
	}

	checkout, err := s.AttachOrder(ctx, o)
	if err != nil {
		return o, nil, err
	}
	return o, checkout, nil
}

func (s *PaymentService) InitiateSubscription(ctx context.Context, actor Actor, id uuid.UUID) (*models.Subscription, *transport.CheckoutResponse, error) {
	sub, err := s.Repo.GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrSubscriptionNotFound
		}
		return nil, nil, err
	}
	if !actor.owns(sub.Username) {
		return nil, nil, ErrSubscriptionNotFound
	}
	if sub.PaymentMethod != models.PaymentMethodOnline {
		return nil, nil, fmt.Errorf("%w: subscription is cash on delivery", ErrValidation)
	}
	if sub.PaymentStatus == models.PaymentStatusPaid {
		return nil, nil, fmt.Errorf("subscription already paid: %w", ErrConflict)
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return nil, nil, fmt.Errorf("subscription is cancelled: %w", ErrConflict)
	}

	checkout, err := s.AttachSubscription(ctx, sub)
	if err != nil {
		return sub, nil, err
	}
	return sub, checkout, nil
}

// Confirm handles the checkout callback the client forwards after paying.
// Nothing changes unless the signature verifies.
func (s *PaymentService) Confirm(ctx context.Context, actor Actor, cb PaymentCallback) (*PaymentResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.confirm", "provider_order_id", cb.ProviderOrderID)

	if !payment.VerifyPaymentSignature(cb.ProviderOrderID, cb.ProviderPaymentID, cb.Signature, s.KeySecret) {
		s.Metrics.Payment("invalid_signature")
		l.Warn("confirm_payment_error", "status", 400, "reason", "signature mismatch")
		return nil, ErrInvalidSignature
	}

	res, err := s.capture(ctx, &actor, cb.ProviderOrderID, cb.ProviderPaymentID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.Metrics.Payment("failed")
		}
		return nil, err
	}
	return res, nil
}

// HandleWebhook processes a provider server-to-server notification. It
// reports false for events it acknowledges without acting on.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "payment.webhook")

	if !payment.VerifyWebhookSignature(body, signature, s.WebhookSecret) {
		s.Metrics.Payment("invalid_signature")
		return false, ErrInvalidSignature
	}
	ev, err := payment.ParseWebhook(body)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if ev.Event != payment.EventPaymentCaptured {
		l.Info("webhook_ignored", "event", ev.Event)
		return false, nil
	}

	entity := ev.Payload.Payment.Entity
	if _, err := s.capture(ctx, nil, entity.OrderID, entity.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("webhook_ignored", "event", ev.Event, "reason", "unknown provider order", "provider_order_id", entity.OrderID)
			return false, nil
		}
		s.Metrics.Payment("failed")
		return false, err
	}
	return true, nil
}

// capture marks the order or subscription behind providerOrderID as paid.
// A nil actor means the provider itself is calling.
func (s *PaymentService) capture(ctx context.Context, actor *Actor, providerOrderID, paymentID string) (*PaymentResult, error) {
	if providerOrderID == "" || paymentID == "" {
		return nil, fmt.Errorf("%w: provider order and payment ids are required", ErrValidation)
	}

	o, err := s.Repo.GetOrderByProviderOrderID(ctx, providerOrderID)
	switch {
	case err == nil:
		if actor != nil && !actor.owns(o.Username) {
			return nil, ErrOrderNotFound
		}
		return s.captureOrder(ctx, o, paymentID)
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	sub, err := s.Repo.GetSubscriptionByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("provider order %s: %w", providerOrderID, ErrNotFound)
		}
		return nil, err
	}
	if actor != nil && !actor.owns(sub.Username) {
		return nil, ErrSubscriptionNotFound
	}
	return s.captureSubscription(ctx, sub, paymentID)
}

func paidWith(id *string, paymentID string) bool {
	return id != nil && *id == paymentID
}

func (s *PaymentService) captureOrder(ctx context.Context, o *models.Order, paymentID string) (*PaymentResult, error) {
	for attempt := 0; ; attempt++ {
		if o.PaymentStatus == models.PaymentStatusPaid {
			if paidWith(o.PaymentID, paymentID) {
				s.Metrics.Payment("replayed")
				return &PaymentResult{Order: o, Replayed: true}, nil
			}
			return nil, ErrAlreadyPaid
		}

		next := o.Status
		if next == models.OrderStatusPending {
			next = models.OrderStatusProcessing
		}
		err := s.Repo.MarkOrderPaid(ctx, o, paymentID, next)
		if err == nil {
			break
		}
		if !errors.Is(err, repo.ErrStale) || attempt > 0 {
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
		if o, err = s.Repo.GetOrder(ctx, o.ID); err != nil {
			return nil, err
		}
	}

	o, err := s.Repo.GetOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.Metrics.Payment("captured")
	s.Metrics.StatusChanged("order", string(o.Status))
	publish(ctx, s.Events, mykafka.TopicPayments, o.ID.String(),
		mykafka.NewEvent("payment_captured", o.Username, map[string]any{
			"order_id":   o.ID,
			"payment_id": paymentID,
			"amount":     o.Price,
		}))
	return &PaymentResult{Order: o}, nil
}

func (s *PaymentService) captureSubscription(ctx context.Context, sub *models.Subscription, paymentID string) (*PaymentResult, error) {
	if sub.PaymentStatus == models.PaymentStatusPaid {
		if paidWith(sub.PaymentID, paymentID) {
			s.Metrics.Payment("replayed")
			return &PaymentResult{Subscription: sub, Replayed: true}, nil
		}
		return nil, ErrAlreadyPaid
	}

	if err := s.Repo.MarkSubscriptionPaid(ctx, sub, paymentID); err != nil {
		if !errors.Is(err, repo.ErrStale) {
			return nil, fmt.Errorf("mark subscription paid: %w", err)
		}
		cur, gerr := s.Repo.GetSubscription(ctx, sub.ID)
		if gerr != nil {
			return nil, gerr
		}
		if paidWith(cur.PaymentID, paymentID) {
			return &PaymentResult{Subscription: cur, Replayed: true}, nil
		}
		return nil, ErrAlreadyPaid
	}

	cur, err := s.Repo.GetSubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	s.Metrics.Payment("captured")
	publish(ctx, s.Events, mykafka.TopicPayments, cur.ID.String(),
		mykafka.NewEvent("payment_captured", cur.Username, map[string]any{
			"subscription_id": cur.ID,
			"payment_id":      paymentID,
			"amount":          cur.Price + cur.Deposit,
		}))
	return &PaymentResult{Subscription: cur}, nil
}
