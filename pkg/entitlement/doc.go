// Package entitlement decides whether a user may see the paid area.
//
// A user has access when their subscription status is "active" or
// "trialing", or when their free trial has not ended yet (the end instant
// itself is still inside the trial). Everything else, including a missing
// record and statuses this package has never heard of, lands on the paywall.
//
// The decision itself is pure:
//
//	d := entitlement.Decide(entitlement.Input{
//		User:          &userID,
//		Entitlement:   snap,
//		RequestedPath: "/app/transactions",
//	}, time.Now())
//
// Service wires the decision to a Store, and RequireAccess enforces it on
// HTTP handlers so protected data is never served on the client's word alone.
//
// Records are written only by the webhook reconciler and the checkout
// bridge; the gate never mutates them. Store.ApplySubscription applies a
// provider event only when it is not older than the last one applied to
// the same row, so out-of-order deliveries cannot roll a record back.
package entitlement
