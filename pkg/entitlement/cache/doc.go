// Package cache puts a short-lived Redis cache in front of an
// entitlement.Reader. Concurrent misses for the same user share one load.
//
// Each user has a generation counter next to the cached entry. Invalidate
// bumps it, and a load only writes back when the counter is unchanged.
package cache
