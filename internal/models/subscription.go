package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subscription struct {
	ID               uuid.UUID          `gorm:"type:uuid;primaryKey"                                                  json:"id"`
	Username         string             `gorm:"size:64;not null;index;uniqueIndex:idx_subscriptions_user_idem,priority:1" json:"user_name"`
	EquipmentID      uuid.UUID          `gorm:"type:uuid;not null;index"                                              json:"equipment_id"`
	Equipment        *Equipment         `gorm:"foreignKey:EquipmentID;constraint:OnDelete:RESTRICT"                   json:"equipment,omitempty"`
	SubscriptionType SubscriptionType   `gorm:"size:16;not null"                                                      json:"subscription_type"`
	StartDate        time.Time          `gorm:"not null;index"                                                        json:"start_date"`
	EndDate          time.Time          `gorm:"not null"                                                              json:"end_date"`
	PickupLocation   string             `gorm:"size:512;not null"                                                     json:"pickup_location"`
	DropLocation     string             `gorm:"size:512;not null"                                                     json:"drop_location"`
	Deposit          int64              `gorm:"not null;default:0"                                                    json:"deposit"`
	Price            int64              `gorm:"not null"                                                              json:"price"`
	PaymentMethod    PaymentMethod      `gorm:"size:16;not null"                                                      json:"payment_method"`
	Status           SubscriptionStatus `gorm:"size:16;not null;index"                                                json:"status"`
	PaymentStatus    PaymentStatus      `gorm:"size:16;not null"                                                      json:"payment_status"`
	PaymentID        *string            `gorm:"size:64"                                                               json:"payment_id,omitempty"`
	ProviderOrderID  *string            `gorm:"size:64;uniqueIndex"                                                   json:"provider_order_id,omitempty"`
	IdempotencyKey   *string            `gorm:"size:128;uniqueIndex:idx_subscriptions_user_idem,priority:2"           json:"-"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// EndDate derives the rental end from its start: seven days for WEEKLY,
// one calendar month for MONTHLY. A month end that does not exist in the
// target month (Jan 31 -> Feb) is clamped to that month's last day.
func EndDate(start time.Time, t SubscriptionType) time.Time {
	if t == SubscriptionWeekly {
		return start.AddDate(0, 0, 7)
	}

	y, m, d := start.Date()
	first := time.Date(y, m+1, 1, start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
}
