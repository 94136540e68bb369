package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, username string) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0)
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("username = ?", username).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart increments the quantity of an existing line or creates it. The
// resulting quantity may not exceed maxQuantity.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem, maxQuantity int) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CartItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("username = ? AND product_id = ?", item.Username, item.ProductID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.Quantity+item.Quantity > maxQuantity {
				return ErrLimitExceeded
			}
			if err := tx.Model(&existing).Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if item.Quantity > maxQuantity {
				return ErrLimitExceeded
			}
			if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
				return err
			}
		default:
			return err
		}
		return tx.Where("username = ? AND product_id = ?", item.Username, item.ProductID).First(item).Error
	})
	return translate(err)
}

// RemoveOneFromCart decrements a line and deletes it when it reaches zero.
func (r *GormRepo) RemoveOneFromCart(ctx context.Context, username string, productID uuid.UUID) (bool, *models.CartItem, error) {
	var item models.CartItem
	deleted := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("username = ? AND product_id = ?", username, productID).
			First(&item).Error; err != nil {
			return err
		}
		if item.Quantity > 1 {
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity - 1")).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", item.ID).First(&item).Error
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, nil, translate(err)
	}
	return deleted, &item, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, username string) error {
	return r.DB.WithContext(ctx).Where("username = ?", username).Delete(&models.CartItem{}).Error
}
