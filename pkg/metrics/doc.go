// Package metrics exposes Prometheus collectors for the billing webhook,
// the checkout/portal bridge and the entitlement gate.
//
// Collectors live in a per-instance registry so tests can create as many as
// they like. Every recording method is a no-op on a nil *Metrics.
package metrics
