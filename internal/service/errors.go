package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
	ErrUpstream     = errors.New("upstream")     // 502
)

var (
	ErrInvalidCredentials   = fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
	ErrAccountNotFound      = fmt.Errorf("account not found: %w", ErrNotFound)
	ErrProductNotFound      = fmt.Errorf("product not found: %w", ErrNotFound)
	ErrEquipmentNotFound    = fmt.Errorf("equipment not found: %w", ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order not found: %w", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("subscription not found: %w", ErrNotFound)
	ErrCartItemNotFound     = fmt.Errorf("product is not in cart: %w", ErrNotFound)
	ErrProductUnavailable   = fmt.Errorf("product unavailable: %w", ErrValidation)
	ErrEquipmentUnavailable = fmt.Errorf("equipment unavailable: %w", ErrValidation)
	ErrPriceMismatch        = fmt.Errorf("unit price does not match catalog: %w", ErrValidation)
	ErrQuantityLimit        = fmt.Errorf("quantity exceeds the per-line limit: %w", ErrValidation)
	ErrPriceOverflow        = fmt.Errorf("order total out of range: %w", ErrValidation)
	ErrInvalidStatus        = fmt.Errorf("invalid status: %w", ErrValidation)
	ErrInvalidSignature     = fmt.Errorf("invalid payment signature: %w", ErrValidation)
	ErrInvalidTransition    = fmt.Errorf("status transition not allowed: %w", ErrConflict)
	ErrStaleStatus          = fmt.Errorf("status changed concurrently: %w", ErrConflict)
	ErrUsernameTaken        = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrEmailTaken           = fmt.Errorf("email already taken: %w", ErrConflict)
	ErrAlreadyPaid          = fmt.Errorf("already paid with another payment: %w", ErrConflict)
)
