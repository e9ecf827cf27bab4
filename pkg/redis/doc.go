// Package redis connects to the optional Redis server shared by the
// entitlement read cache and the billing rate limiter.
//
//	if cfg.Enabled() {
//		rdb, err := redis.Connect(ctx, cfg)
//		...
//	}
//
// Healthcheck adapts a client into a readiness probe for httpserver.
package redis
