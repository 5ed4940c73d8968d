package stock

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCodeInsufficientStock is the machine-readable code carried by
// InsufficientStockError
const ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"

// InsufficientStockError is returned when a lot cannot cover a requested
// consumption. It carries both quantities so callers can surface the gap
// without a second lookup.
type InsufficientStockError struct {
	Lot       Lot
	Requested decimal.Decimal
	Available decimal.Decimal
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(lot Lot, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		Lot:       lot,
		Requested: requested,
		Available: available,
	}
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in lot %s: requested %s, available %s",
		e.Lot.String(), e.Requested.String(), e.Available.String())
}

// Code returns the error code for transport-layer mapping
func (e *InsufficientStockError) Code() string {
	return ErrCodeInsufficientStock
}
