package entitlement

import "errors"

var (
	ErrNotFound        = errors.New("entitlement: record not found")
	ErrMissingCustomer = errors.New("entitlement: customer id is required")
	ErrMissingUser     = errors.New("entitlement: user id is required")
	ErrStoreFailure    = errors.New("entitlement: store failure")
	ErrCustomerTaken   = errors.New("entitlement: customer belongs to another user")
)
