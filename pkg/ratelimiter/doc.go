// Package ratelimiter caps how often a caller may hit an endpoint within a
// fixed window.
//
// The billing endpoints use it per user: each checkout may create a
// provider customer, so a stuck client retrying in a loop is cut off early.
//
//	l, _ := ratelimiter.New(ratelimiter.NewRedisStore(rdb, cfg.Prefix), cfg)
//	r.Use(ratelimiter.Middleware(l, keyByUser, log))
//
// MemoryStore serves single-instance deployments and tests.
package ratelimiter
