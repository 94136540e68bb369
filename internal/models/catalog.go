package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Name        string    `gorm:"size:255;not null"             json:"name"`
	Description string    `gorm:"type:text"                     json:"description"`
	Price       int64     `gorm:"not null;check:price >= 0"     json:"price"`
	Category    string    `gorm:"size:64;index"                 json:"category"`
	ImageURL    string    `gorm:"size:512"                      json:"image_url,omitempty"`
	Available   bool      `gorm:"not null;index"                json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Equipment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"               json:"id"`
	Name         string    `gorm:"size:255;not null"                  json:"name"`
	Description  string    `gorm:"type:text"                          json:"description"`
	WeeklyPrice  int64     `gorm:"not null;check:weekly_price >= 0"   json:"weekly_price"`
	MonthlyPrice int64     `gorm:"not null;check:monthly_price >= 0"  json:"monthly_price"`
	Deposit      int64     `gorm:"not null;default:0"                 json:"deposit"`
	ImageURL     string    `gorm:"size:512"                           json:"image_url,omitempty"`
	Available    bool      `gorm:"not null;index"                     json:"available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Equipment) TableName() string { return "equipment" }

func (e *Equipment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type Store struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Name         string    `gorm:"size:255;not null"      json:"name"`
	Address      string    `gorm:"size:512;not null"      json:"address"`
	City         string    `gorm:"size:128;index"         json:"city"`
	PhoneNumber  string    `gorm:"size:32"                json:"phone_number,omitempty"`
	OpeningHours string    `gorm:"size:128"               json:"opening_hours,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Store) TableName() string { return "stores" }

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Title       string    `gorm:"size:255;not null"      json:"title"`
	Description string    `gorm:"type:text"              json:"description"`
	Location    string    `gorm:"size:255"               json:"location"`
	StartsAt    time.Time `gorm:"not null;index"         json:"starts_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
