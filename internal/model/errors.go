package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrItemNotFound  = fmt.Errorf("item %w", ErrNotFound)
	ErrItemNotInCart = fmt.Errorf("item not in cart: %w", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)

	ErrAuthentication     = errors.New("authentication failed")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrAuthentication)
	ErrNotLoggedIn        = fmt.Errorf("user is not logged in: %w", ErrAuthentication)

	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidDiscount   = errors.New("discount must be greater than 0 and at most 100 percent")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrDuplicateOrder    = errors.New("order already recorded")
)

// InsufficientStockError reports the first item that could not be covered.
type InsufficientStockError struct {
	ItemID    int
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
