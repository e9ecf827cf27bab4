package billing

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrPriceNotConfigured = errors.New("price id is not configured")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidEvent       = errors.New("invalid webhook event")
)
