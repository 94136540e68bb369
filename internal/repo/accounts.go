package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func (r *GormRepo) CreateAccount(ctx context.Context, acc *models.Account) error {
	return translate(r.DB.WithContext(ctx).Create(acc).Error)
}

func (r *GormRepo) GetAccount(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&acc).Error; err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

func (r *GormRepo) AccountExists(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Taken reports which of username and email are already registered.
func (r *GormRepo) Taken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var rows []models.Account
	if err := r.DB.WithContext(ctx).
		Select("username", "email").
		Where("username = ? OR email = ?", username, email).
		Find(&rows).Error; err != nil {
		return false, false, err
	}
	for _, a := range rows {
		if a.Username == username {
			usernameTaken = true
		}
		if a.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

func (r *GormRepo) EmailTakenByOther(ctx context.Context, email, username string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("email = ? AND username <> ?", email, username).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) UpdateAccount(ctx context.Context, username string, fields map[string]any) (*models.Account, error) {
	var acc models.Account
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&acc).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&acc).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("username = ?", username).First(&acc).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}
