package ratelimiter

import (
	"context"
	"time"
)

// Store counts hits per key within a window.
type Store interface {
	// Hit increments key and returns the count in the current window along
	// with the moment the window ends.
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}
