package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateOrder writes the header and every item in one transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	items := order.Items
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			items[i].Position = i
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&items).Error
	})
	if err != nil {
		return translate(err)
	}
	order.Items = items
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", preloadItems).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormRepo) GetOrderByIdempotencyKey(ctx context.Context, username, key string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", preloadItems).
		Where("username = ? AND idempotency_key = ?", username, key).
		First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormRepo) GetOrderByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", preloadItems).
		Where("provider_order_id = ?", providerOrderID).
		First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// ListOrders returns newest first; an empty status means any.
func (r *GormRepo) ListOrders(ctx context.Context, username string, status models.OrderStatus, page Page) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("username = ?", username)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0)
	if err := page.apply(q.Order("created_at DESC, id DESC")).
		Preload("Items", preloadItems).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

// UpdateOrderStatus moves an order from one status to another and fails
// with ErrStale if the stored status is no longer from.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
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

func (r *GormRepo) SetOrderProviderOrderID(ctx context.Context, id uuid.UUID, providerOrderID string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
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

func (r *GormRepo) MarkOrderPaid(ctx context.Context, o *models.Order, paymentID string, next models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status <> ?", o.ID, o.Status, models.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": models.PaymentStatusPaid,
			"payment_id":     paymentID,
			"status":         next,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
