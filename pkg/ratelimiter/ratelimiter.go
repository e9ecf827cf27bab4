package ratelimiter

import (
	"context"
	"time"
)

// Limiter applies a fixed-window Config on top of a Store.
type Limiter struct {
	store Store
	cfg   Config
}

// New validates cfg and returns a Limiter.
func New(store Store, cfg Config) (*Limiter, error) {
	if store == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, ErrInvalidConfig
	}
	return &Limiter{store: store, cfg: cfg}, nil
}

// Allow records one request for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Hit(ctx, key, l.cfg.Window)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: l.cfg.Limit, Remaining: l.cfg.Limit - count, ResetAt: resetAt}, nil
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.cfg.Window }
