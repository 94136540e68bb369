package repo

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced means a delete was refused because other rows point at
	// the record.
	ErrReferenced = errors.New("record is referenced")
	// ErrStale means a compare-and-set update matched no row because the
	// record changed since it was read.
	ErrStale = errors.New("stale write")
	// ErrLimitExceeded means a write would push a quantity past its cap.
	ErrLimitExceeded = errors.New("limit exceeded")
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.Product{},
		&models.Equipment{},
		&models.Store{},
		&models.Event{},
		&models.Order{},
		&models.OrderItem{},
		&models.Subscription{},
		&models.CartItem{},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", ErrReferenced, err)
	default:
		return err
	}
}

// isUniqueViolation covers drivers that do not implement gorm's error
// translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "SQLSTATE 23503")
}

// Page describes an optional window; Limit <= 0 returns everything.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit <= 0 {
		return q
	}
	return q.Offset(p.Offset).Limit(p.Limit)
}
