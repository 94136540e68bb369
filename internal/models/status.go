package models

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  nil,
	OrderStatusCancelled:  nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether s may move to next. Staying put is allowed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCompleted SubscriptionStatus = "COMPLETED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusActive:    {SubscriptionStatusCompleted, SubscriptionStatusCancelled},
	SubscriptionStatusCompleted: nil,
	SubscriptionStatusCancelled: nil,
}

func (s SubscriptionStatus) Valid() bool {
	_, ok := subscriptionTransitions[s]
	return ok
}

func (s SubscriptionStatus) CanTransition(next SubscriptionStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, to := range subscriptionTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// InitialPaymentStatus is UNPAID for cash on delivery and PENDING while an
// online checkout is outstanding.
func InitialPaymentStatus(m PaymentMethod) PaymentStatus {
	if m == PaymentMethodOnline {
		return PaymentStatusPending
	}
	return PaymentStatusUnpaid
}

type SubscriptionType string

const (
	SubscriptionWeekly  SubscriptionType = "WEEKLY"
	SubscriptionMonthly SubscriptionType = "MONTHLY"
)

func (t SubscriptionType) Valid() bool {
	return t == SubscriptionWeekly || t == SubscriptionMonthly
}
