package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrPaymentNotFound  = errors.New("payment not found")

	// ErrCustomerRequired: a credit sale adjusts a customer balance, so a
	// walk-in credit sale is not representable.
	ErrCustomerRequired = errors.New("credit sale requires a customer")

	ErrBackupDecrypt = errors.New("backup cannot be decrypted")
)

// ValidationError reports a malformed field on an inbound request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError names the first line whose requested quantity
// exceeds the available stock. The whole request is rejected.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (need %d, have %d)", e.Name, e.Requested, e.Available)
}
