package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks missing or malformed request data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientStock is returned when a product cannot cover a requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrGatewayUnsuccessful covers every failed payment verification attempt.
	ErrGatewayUnsuccessful = errors.New("payment not successful")
	// ErrAmountMismatch means the gateway charged a different amount than the order total.
	ErrAmountMismatch = errors.New("amount mismatch")
	// ErrCurrencyMismatch means the gateway charged in a different currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidTransition is returned for backward or repeated order status moves.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyPaid is returned by stores when a payment commit finds the order already paid.
	ErrAlreadyPaid = errors.New("order already paid")
	// ErrUnauthorized indicates a missing or invalid identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

func (e validationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid builds an error matching ErrInvalidInput with a client-facing message.
func Invalid(format string, args ...any) error {
	return validationError{msg: fmt.Sprintf(format, args...)}
}

// StockError reports which product could not cover the requested quantity.
type StockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s", name)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// ProductNotFound wraps ErrNotFound with the missing product id.
func ProductNotFound(id string) error {
	return fmt.Errorf("product %s: %w", id, ErrNotFound)
}

// OrderNotFound wraps ErrNotFound with the missing order id or reference.
func OrderNotFound(key string) error {
	return fmt.Errorf("order %s: %w", key, ErrNotFound)
}
