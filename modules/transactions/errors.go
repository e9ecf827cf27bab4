package transactions

import "errors"

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrStoreFailure  = errors.New("transaction store failure")
)
