package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"                                            json:"id"`
	Username        string        `gorm:"size:64;not null;index;uniqueIndex:idx_orders_user_idem,priority:1" json:"user_name"`
	Location        string        `gorm:"size:512;not null"                                               json:"location"`
	Notes           string        `gorm:"type:text"                                                       json:"notes,omitempty"`
	Price           int64         `gorm:"not null;check:price >= 0"                                       json:"price"`
	PaymentMethod   PaymentMethod `gorm:"size:16;not null"                                                json:"payment_method"`
	Status          OrderStatus   `gorm:"size:16;not null;index"                                          json:"status"`
	PaymentStatus   PaymentStatus `gorm:"size:16;not null"                                                json:"payment_status"`
	PaymentID       *string       `gorm:"size:64"                                                         json:"payment_id,omitempty"`
	ProviderOrderID *string       `gorm:"size:64;uniqueIndex"                                             json:"provider_order_id,omitempty"`
	IdempotencyKey  *string       `gorm:"size:128;uniqueIndex:idx_orders_user_idem,priority:2"            json:"-"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"                  json:"items"`
	CreatedAt       time.Time     `gorm:"not null;index"                                                  json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"                 json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"             json:"order_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"             json:"product_id"`
	Product     *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
	ProductName string    `gorm:"size:255;not null"                    json:"product_name"`
	Quantity    int       `gorm:"not null;check:quantity > 0"          json:"quantity"`
	UnitPrice   int64     `gorm:"not null;check:unit_price >= 0"       json:"unit_price"`
	Price       int64     `gorm:"not null"                             json:"price"`
	Position    int       `gorm:"not null;default:0"                   json:"-"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// MaxItemQuantity bounds the quantity of a single order or cart line.
const MaxItemQuantity = 1000

// LinePrice is quantity × unitPrice. ok is false when either is negative
// or the product does not fit in an int64.
func LinePrice(quantity int, unitPrice int64) (price int64, ok bool) {
	if quantity < 0 || unitPrice < 0 {
		return 0, false
	}
	if unitPrice != 0 && int64(quantity) > math.MaxInt64/unitPrice {
		return 0, false
	}
	return int64(quantity) * unitPrice, true
}

// AddPrices is a + b for non-negative amounts, reporting overflow.
func AddPrices(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// SumPrices is Total with an overflow check.
func SumPrices(items []OrderItem) (total int64, ok bool) {
	for _, it := range items {
		if total, ok = AddPrices(total, it.Price); !ok {
			return 0, false
		}
	}
	return total, true
}

// Total sums line prices; it is what Order.Price must equal.
func Total(items []OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price
	}
	return sum
}
