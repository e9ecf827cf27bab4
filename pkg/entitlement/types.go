package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// Status mirrors the payment provider's subscription status verbatim.
// Only StatusActive and StatusTrialing grant access; every other value,
// including ones not listed here, is passed through untouched.
type Status = string

const (
	StatusActive            Status = "active"
	StatusTrialing          Status = "trialing"
	StatusPastDue           Status = "past_due"
	StatusCanceled          Status = "canceled"
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusUnpaid            Status = "unpaid"
	StatusPaused            Status = "paused"
)

// Record is the persisted entitlement row. There is at most one per user.
type Record struct {
	UserID               uuid.UUID
	TrialEndsAt          *time.Time
	SubscriptionStatus   Status // empty when the provider never reported one
	CurrentPeriodEnd     *time.Time
	StripeCustomerID     string
	StripeSubscriptionID string
	LastEventAt          *time.Time // provider timestamp of the last applied event
	UpdatedAt            time.Time
}

// Snapshot returns the subset of the record the gate looks at.
func (r *Record) Snapshot() *Snapshot {
	if r == nil {
		return nil
	}
	return &Snapshot{
		TrialEndsAt:        r.TrialEndsAt,
		SubscriptionStatus: r.SubscriptionStatus,
	}
}

// HasCustomer reports whether a provider customer has been attached.
func (r *Record) HasCustomer() bool {
	return r != nil && r.StripeCustomerID != ""
}

// Snapshot is the read-only view consumed by the gate and the paywall page.
type Snapshot struct {
	TrialEndsAt        *time.Time
	SubscriptionStatus Status
}

// SubscriptionChange is a provider-originated update to apply to a record.
type SubscriptionChange struct {
	Provider         string
	EventID          string
	EventType        string
	CustomerID       string
	SubscriptionID   string
	Status           Status
	CurrentPeriodEnd *time.Time
	EventAt          time.Time
	// UserID comes from subscription metadata; used only when no row carries CustomerID yet.
	UserID *uuid.UUID
}

// ApplyResult describes what the store did with a SubscriptionChange.
type ApplyResult struct {
	Matched bool      // a row was found for the customer (or user)
	Applied bool      // the row was updated; false means the event was stale
	UserID  uuid.UUID // owner of the matched row
}
