package repository

import "errors"

// Sentinel errors returned by the repositories.  Handlers compare against
// these with errors.Is to map database outcomes to HTTP responses.
var (
	// ErrPaymentNotFound is returned when no row exists for a payment id.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvalidQuantity is returned when an allocation is requested with a
	// non-positive ticket quantity.
	ErrInvalidQuantity = errors.New("ticket quantity must be at least 1")
)
