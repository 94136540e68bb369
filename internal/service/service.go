package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/payment"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

// Actor is the identity the auth gate attached to the request.
type Actor struct {
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool { return a.Role == tokens.RoleAdmin }

// owns reports whether the actor may see a record owned by username.
func (a Actor) owns(username string) bool {
	return a.IsAdmin() || a.Username == username
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type PaymentProvider interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*payment.Order, error)
	KeyID() string
}

type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
	IndexProduct(ctx context.Context, p models.Product) error
}

type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

const publishTimeout = 5 * time.Second

// publish never fails the caller; a nil publisher skips the event.
func publish(ctx context.Context, p EventPublisher, topic, key string, ev mykafka.Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "event", ev.Type, "error", err)
	}
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
