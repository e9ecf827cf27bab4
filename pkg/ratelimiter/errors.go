package ratelimiter

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid rate limiter config")
	ErrStoreFailure  = errors.New("rate limiter store failure")
)
