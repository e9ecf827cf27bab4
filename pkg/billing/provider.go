package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MetadataUserID is the metadata key that ties provider objects back to our user.
const MetadataUserID = "supabase_user_id"

// Provider is the payment provider as seen by the checkout bridge and the
// webhook reconciler. Payment collection, invoices and cancellation all live
// on the provider's hosted pages; this interface only opens them.
type Provider interface {
	// Name identifies the provider in logs, metrics and the event journal.
	Name() string

	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader() string

	// CreateCustomer registers a billing customer and returns its id.
	// Implementations tag the customer with MetadataUserID.
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)

	// CreateCheckoutSession opens a hosted subscription checkout.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Link, error)

	// CreatePortalSession opens the hosted self-service portal.
	CreatePortalSession(ctx context.Context, req PortalRequest) (*Link, error)

	// ParseWebhook verifies the signature over the raw payload and decodes
	// the event. Verification failures wrap ErrSignatureVerification.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// CustomerRequest describes the customer to create.
type CustomerRequest struct {
	UserID uuid.UUID
	Email  string
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	UserID     uuid.UUID
	CustomerID string // provider customer id
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// PortalRequest contains data needed to open the customer portal.
type PortalRequest struct {
	CustomerID     string
	SubscriptionID string // optional; narrows the portal to one subscription where supported
	ReturnURL      string
}

// Link is a short-lived hosted page.
type Link struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// EventType is the provider-independent webhook event type.
type EventType string

const (
	EventSubscriptionCreated EventType = "subscription.created"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
	EventCheckoutCompleted   EventType = "checkout.completed"
	EventOther               EventType = "other"
)

// IsSubscription reports whether the event carries subscription state.
func (t EventType) IsSubscription() bool {
	switch t {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	}
	return false
}

// Event is a verified webhook event.
type Event struct {
	ID           string
	Type         EventType
	ProviderType string    // event name as sent by the provider
	CreatedAt    time.Time // provider timestamp; orders events for the same subscription
	Subscription *SubscriptionData
}

// SubscriptionData is the subscription state carried by an event.
type SubscriptionData struct {
	ID               string
	CustomerID       string
	Status           string // provider status, passed through verbatim
	CurrentPeriodEnd *time.Time
	UserID           *uuid.UUID // from MetadataUserID, when present
}

func parseUserID(v string) *uuid.UUID {
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}
