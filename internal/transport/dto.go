package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

type RegisterRequest struct {
	Username    string `json:"user_name"    validate:"required,min=3,max=64"`
	Email       string `json:"email"        validate:"required,email,max=255"`
	Password    string `json:"password"     validate:"required,min=6,max=72"`
	FullName    string `json:"full_name"    validate:"max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	Address     string `json:"address"      validate:"max=512"`
}

type LoginRequest struct {
	Username string `json:"user_name" validate:"required"`
	Password string `json:"password"  validate:"required"`
}

type AuthResponse struct {
	User      *models.Account `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt int64           `json:"expires_at"`
}

type UpdateAccountRequest struct {
	FullName    *string `json:"full_name"    validate:"omitempty,max=255"`
	Email       *string `json:"email"        validate:"omitempty,email,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
	Address     *string `json:"address"      validate:"omitempty,max=512"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"   validate:"gt=0,lte=1000"`
	UnitPrice int64     `json:"unit_price" validate:"gte=0"`
}

type CreateOrderRequest struct {
	Location       string               `json:"location"        validate:"required,max=512"`
	Notes          string               `json:"notes"           validate:"max=2000"`
	Items          []OrderItemRequest   `json:"items"           validate:"required,min=1,dive"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"  validate:"required,oneof=cod online"`
	IdempotencyKey string               `json:"idempotency_key" validate:"max=128"`
}

type CreateSubscriptionRequest struct {
	EquipmentID      uuid.UUID               `json:"equipment_id"      validate:"required"`
	SubscriptionType models.SubscriptionType `json:"subscription_type" validate:"required,oneof=WEEKLY MONTHLY"`
	PickupLocation   string                  `json:"pickup_location"   validate:"required,max=512"`
	DropLocation     string                  `json:"drop_location"     validate:"required,max=512"`
	PaymentMethod    models.PaymentMethod    `json:"payment_method"    validate:"required,oneof=cod online"`
	IdempotencyKey   string                  `json:"idempotency_key"   validate:"max=128"`
}

// UpdateStatusRequest leaves the enum check to the service, which knows
// the lifecycle of each record kind.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CheckoutResponse is what the client needs to open the provider checkout.
type CheckoutResponse struct {
	ProviderOrderID string `json:"provider_order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	KeyID           string `json:"key_id"`
}

type PlacementResponse struct {
	Order        *models.Order        `json:"order,omitempty"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
	Payment      *CheckoutResponse    `json:"payment,omitempty"`
	Replayed     bool                 `json:"replayed,omitempty"`
}

type VerifyPaymentRequest struct {
	ProviderOrderID   string `json:"razorpay_order_id"   validate:"required"`
	ProviderPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature         string `json:"razorpay_signature"  validate:"required"`
}

type CreateProductRequest struct {
	Name        string `json:"name"        validate:"required,max=255"`
	Description string `json:"description"`
	Price       int64  `json:"price"       validate:"gte=0"`
	Category    string `json:"category"    validate:"max=64"`
	ImageURL    string `json:"image_url"   validate:"omitempty,url,max=512"`
	Available   *bool  `json:"available"`
}

type PatchProductRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"       validate:"omitempty,gte=0"`
	Category    *string `json:"category"    validate:"omitempty,max=64"`
	ImageURL    *string `json:"image_url"   validate:"omitempty,max=512"`
	Available   *bool   `json:"available"`
}

type CreateEquipmentRequest struct {
	Name         string `json:"name"          validate:"required,max=255"`
	Description  string `json:"description"`
	WeeklyPrice  int64  `json:"weekly_price"  validate:"gte=0"`
	MonthlyPrice int64  `json:"monthly_price" validate:"gte=0"`
	Deposit      int64  `json:"deposit"       validate:"gte=0"`
	ImageURL     string `json:"image_url"     validate:"omitempty,url,max=512"`
	Available    *bool  `json:"available"`
}

type CreateStoreRequest struct {
	Name         string `json:"name"          validate:"required,max=255"`
	Address      string `json:"address"       validate:"required,max=512"`
	City         string `json:"city"          validate:"max=128"`
	PhoneNumber  string `json:"phone_number"  validate:"max=32"`
	OpeningHours string `json:"opening_hours" validate:"max=128"`
}

type CreateEventRequest struct {
	Title       string `json:"title"       validate:"required,max=255"`
	Description string `json:"description"`
	Location    string `json:"location"    validate:"max=255"`
	StartsAt    string `json:"starts_at"   validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"   validate:"omitempty,gt=0,lte=1000"`
}

type DeleteOneFromCartResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Deleted   bool      `json:"deleted"`
	Quantity  int       `json:"quantity"`
}

type CheckoutCartRequest struct {
	Location       string               `json:"location"        validate:"required,max=512"`
	Notes          string               `json:"notes"           validate:"max=2000"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"  validate:"required,oneof=cod online"`
	IdempotencyKey string               `json:"idempotency_key" validate:"max=128"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func NewPageMeta(page, offset, limit int, total int64) PageMeta {
	return PageMeta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(offset+limit) < total,
	}
}
