package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"             json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"      json:"user_name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                         json:"-"`
	FullName     string    `gorm:"size:255"                         json:"full_name"`
	PhoneNumber  string    `gorm:"size:32"                          json:"phone_number"`
	Address      string    `gorm:"size:512"                         json:"address"`
	IsMember     bool      `gorm:"not null;default:false"           json:"is_member"`
	Role         string    `gorm:"size:16;not null;default:user"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Orders        []Order        `gorm:"foreignKey:Username;references:Username;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:Username;references:Username;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CartItems     []CartItem     `gorm:"foreignKey:Username;references:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"  json:"-"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
