package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func (r *GormRepo) CreateSubscription(ctx context.Context, s *models.Subscription) error {
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Create(s).Error)
}

func (r *GormRepo) GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.DB.WithContext(ctx).Preload("Equipment").Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormRepo) GetSubscriptionByIdempotencyKey(ctx context.Context, username, key string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.DB.WithContext(ctx).Preload("Equipment").
		Where("username = ? AND idempotency_key = ?", username, key).
		First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormRepo) GetSubscriptionByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.DB.WithContext(ctx).Preload("Equipment").
		Where("provider_order_id = ?", providerOrderID).
		First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormRepo) ListSubscriptions(ctx context.Context, username string) ([]models.Subscription, error) {
	subs := make([]models.Subscription, 0)
	if err := r.DB.WithContext(ctx).
		Preload("Equipment").
		Where("username = ?", username).
		Order("start_date DESC, id DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *GormRepo) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, from, to models.SubscriptionStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r *GormRepo) SetSubscriptionProviderOrderID(ctx context.Context, id uuid.UUID, providerOrderID string) error {
	res := r.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND provider_order_id IS NULL", id).
		Update("provider_order_id", providerOrderID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r *GormRepo) MarkSubscriptionPaid(ctx context.Context, s *models.Subscription, paymentID string) error {
	res := r.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND payment_status <> ?", s.ID, models.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": models.PaymentStatusPaid,
			"payment_id":     paymentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
