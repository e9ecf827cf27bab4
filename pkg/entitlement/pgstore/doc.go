// Package pgstore is the Postgres implementation of entitlement.Store.
//
// Rows live in the entitlements table (one per user). Subscription changes
// are applied with a guarded UPDATE so an event older than the last applied
// one is a no-op, and every change that carries an event id is journaled in
// billing_events within the same transaction.
package pgstore
