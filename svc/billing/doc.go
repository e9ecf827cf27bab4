// Package billing connects signed-in users to the payment provider and keeps
// the entitlement store in step with it.
//
// Bridge.Checkout and Bridge.Portal hand out hosted-page links. Checkout
// creates the provider customer on first use and persists its id before the
// session is opened, so a second checkout reuses it.
//
// Reconciler.Handle verifies a webhook delivery and applies subscription
// events to the store. The store skips events older than the last one it
// applied, which makes out-of-order and repeated deliveries harmless.
package billing
