package billing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeSignatureHeader is the header Stripe signs webhooks with.
const StripeSignatureHeader = "Stripe-Signature"

// StripeProvider implements Provider on top of Stripe Billing.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

// StripeOption configures a StripeProvider.
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends  *stripe.Backends
	tolerance time.Duration
}

// WithStripeBackends routes API calls through custom backends (e.g. a test server).
func WithStripeBackends(b *stripe.Backends) StripeOption {
	return func(o *stripeOptions) { o.backends = b }
}

// WithWebhookTolerance sets how old a signed webhook timestamp may be.
func WithWebhookTolerance(d time.Duration) StripeOption {
	return func(o *stripeOptions) {
		if d > 0 {
			o.tolerance = d
		}
	}
}

// NewStripeProvider creates a Stripe provider.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	o := stripeOptions{tolerance: webhook.DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, o.backends)

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     o.tolerance,
	}, nil
}

func (p *StripeProvider) Name() string            { return ProviderStripe }
func (p *StripeProvider) SignatureHeader() string { return StripeSignatureHeader }

// CreateCustomer creates a Stripe customer tagged with the user id. The
// idempotency key combines the user id with a digest of the parameters, so a
// retried request cannot create a second customer within Stripe's
// idempotency window while a changed email gets a fresh key instead of a
// parameter-mismatch error.
func (p *StripeProvider) CreateCustomer(_ context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	params.AddMetadata(MetadataUserID, req.UserID.String())
	params.SetIdempotencyKey(customerIdempotencyKey(req))

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return c.ID, nil
}

func customerIdempotencyKey(req CustomerRequest) string {
	sum := sha256.Sum256([]byte(req.UserID.String() + "\x00" + req.Email))
	return "customer-" + req.UserID.String() + "-" + hex.EncodeToString(sum[:8])
}

// CreateCheckoutSession creates a subscription-mode Checkout Session for a
// single price.
func (p *StripeProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*Link, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if req.CustomerID == "" {
		return nil, ErrMissingCustomerID
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:            stripe.String(req.CustomerID),
		ClientReferenceID:   stripe.String(req.UserID.String()),
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(req.SuccessURL),
		CancelURL:           stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: req.UserID.String()},
		},
	}
	params.AddMetadata(MetadataUserID, req.UserID.String())

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	link := &Link{URL: s.URL, SessionID: s.ID}
	if s.ExpiresAt > 0 {
		link.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	}
	return link, nil
}

// CreatePortalSession opens the Stripe billing portal for the customer.
func (p *StripeProvider) CreatePortalSession(_ context.Context, req PortalRequest) (*Link, error) {
	if req.CustomerID == "" {
		return nil, ErrMissingCustomerID
	}

	s, err := p.api.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(req.CustomerID),
		ReturnURL: stripe.String(req.ReturnURL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe portal session: %w", err)
	}
	if s.URL == "" {
		return nil, ErrNoPortalURL
	}
	return &Link{URL: s.URL, SessionID: s.ID}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// Events signed for a different API version are accepted; only the fields
// read below are relied upon.
func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing %s header", ErrSignatureVerification, StripeSignatureHeader)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                p.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrSignatureVerification, err)
	}

	event := &Event{
		ID:           ev.ID,
		Type:         mapStripeEventType(string(ev.Type)),
		ProviderType: string(ev.Type),
		CreatedAt:    time.Unix(ev.Created, 0).UTC(),
	}

	if event.Type.IsSubscription() {
		if ev.Data == nil || len(ev.Data.Raw) == 0 {
			return nil, fmt.Errorf("%w: %s has no data", ErrMalformedEvent, ev.Type)
		}
		var sub stripeSubscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}
		event.Subscription = sub.data()
	}

	return event, nil
}

func mapStripeEventType(t string) EventType {
	switch t {
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "checkout.session.completed":
		return EventCheckoutCompleted
	default:
		return EventOther
	}
}

// stripeSubscription is the slice of a Stripe subscription object this
// service reads. The period end moved from the subscription to its items in
// newer API versions; both places are checked.
type stripeSubscription struct {
	ID               string            `json:"id"`
	Customer         stripeRef         `json:"customer"`
	Status           string            `json:"status"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func (s stripeSubscription) data() *SubscriptionData {
	d := &SubscriptionData{
		ID:         s.ID,
		CustomerID: s.Customer.ID,
		Status:     s.Status,
		UserID:     parseUserID(s.Metadata[MetadataUserID]),
	}
	end := s.CurrentPeriodEnd
	if end == 0 && len(s.Items.Data) > 0 {
		end = s.Items.Data[0].CurrentPeriodEnd
	}
	if end > 0 {
		t := time.Unix(end, 0).UTC()
		d.CurrentPeriodEnd = &t
	}
	return d
}

// stripeRef accepts an expandable field as either an id string or an object.
type stripeRef struct {
	ID string
}

func (r *stripeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	return nil
}

var _ Provider = (*StripeProvider)(nil)
