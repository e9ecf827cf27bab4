package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// Reader returns the gate's view of a user's entitlement.
// A user without a row yields (nil, nil).
type Reader interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, userID uuid.UUID) (*Snapshot, error)

func (f ReaderFunc) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	return f(ctx, userID)
}

// Store is the authoritative persistence for entitlement records.
type Store interface {
	// Get returns ErrNotFound when the user has no row.
	Get(ctx context.Context, userID uuid.UUID) (*Record, error)

	// AttachCustomer records the provider customer for a user, creating the
	// row without a trial if needed. The first stored id wins; the persisted
	// id is returned. A customer already stored for another user yields
	// ErrCustomerTaken.
	AttachCustomer(ctx context.Context, userID uuid.UUID, customerID string) (string, error)

	// ApplySubscription updates the row that owns the change's customer
	// (or, failing that, its metadata user) unless a newer event was already applied.
	ApplySubscription(ctx context.Context, change SubscriptionChange) (ApplyResult, error)
}
