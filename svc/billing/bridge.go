package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/liberta-app/liberta/pkg/billing"
	"github.com/liberta-app/liberta/pkg/config"
	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/logger"
	"github.com/liberta-app/liberta/pkg/metrics"
	"github.com/liberta-app/liberta/pkg/session"
)

// Bridge opens the provider's hosted checkout and portal pages for the
// signed-in user. It never retries; provider errors propagate.
type Bridge struct {
	provider billing.Provider
	store    entitlement.Store
	priceID  string
	app      config.App
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the logger.
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithBridgeMetrics records one counter per request.
func WithBridgeMetrics(m *metrics.Metrics) BridgeOption {
	return func(b *Bridge) { b.metrics = m }
}

// NewBridge builds a Bridge. priceID may be empty; Checkout then fails with
// ErrPriceNotConfigured instead of the process refusing to start.
func NewBridge(provider billing.Provider, store entitlement.Store, priceID string, app config.App, opts ...BridgeOption) *Bridge {
	if provider == nil || store == nil {
		panic("billing: NewBridge requires a provider and a store")
	}
	b := &Bridge{
		provider: provider,
		store:    store,
		priceID:  priceID,
		app:      app,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(logger.Component("billing.bridge"), logger.Provider(provider.Name()))
	return b
}

// Checkout returns a subscription checkout link for id. The provider
// customer is created and persisted on the first call; later calls reuse the
// stored id.
func (b *Bridge) Checkout(ctx context.Context, id *session.Identity, returnURL string) (link *billing.Link, err error) {
	defer func() { b.metrics.BridgeRequest("checkout", err) }()

	if id == nil {
		return nil, ErrUnauthenticated
	}
	if b.priceID == "" {
		return nil, ErrPriceNotConfigured
	}

	customerID, err := b.ensureCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	success := b.app.Site() + "/app?checkout=success"
	if returnURL != "" && b.app.SameSite(returnURL) {
		success = returnURL
	}

	link, err = b.provider.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		UserID:     id.ID,
		CustomerID: customerID,
		PriceID:    b.priceID,
		SuccessURL: success,
		CancelURL:  b.app.Site() + "/app/paywall?checkout=cancel",
	})
	if err != nil {
		b.log.ErrorContext(ctx, "checkout session failed", logger.UserID(id.ID), logger.CustomerID(customerID), logger.Error(err))
		return nil, err
	}
	b.log.InfoContext(ctx, "checkout session created", logger.UserID(id.ID), logger.CustomerID(customerID))
	return link, nil
}

// Portal returns a self-service portal link. Users who never reached
// checkout have no customer and get ErrCustomerNotFound.
func (b *Bridge) Portal(ctx context.Context, id *session.Identity, returnURL string) (link *billing.Link, err error) {
	defer func() { b.metrics.BridgeRequest("portal", err) }()

	if id == nil {
		return nil, ErrUnauthenticated
	}

	rec, err := b.store.Get(ctx, id.ID)
	switch {
	case errors.Is(err, entitlement.ErrNotFound):
		return nil, ErrCustomerNotFound
	case err != nil:
		return nil, fmt.Errorf("load entitlement: %w", err)
	case !rec.HasCustomer():
		return nil, ErrCustomerNotFound
	}

	back := b.app.Site() + "/app"
	if returnURL != "" && b.app.SameSite(returnURL) {
		back = returnURL
	}

	link, err = b.provider.CreatePortalSession(ctx, billing.PortalRequest{
		CustomerID:     rec.StripeCustomerID,
		SubscriptionID: rec.StripeSubscriptionID,
		ReturnURL:      back,
	})
	if err != nil {
		b.log.ErrorContext(ctx, "portal session failed", logger.UserID(id.ID), logger.Error(err))
		return nil, err
	}
	return link, nil
}

func (b *Bridge) ensureCustomer(ctx context.Context, id *session.Identity) (string, error) {
	rec, err := b.store.Get(ctx, id.ID)
	if err != nil && !errors.Is(err, entitlement.ErrNotFound) {
		return "", fmt.Errorf("load entitlement: %w", err)
	}
	if rec.HasCustomer() {
		return rec.StripeCustomerID, nil
	}

	created, err := b.provider.CreateCustomer(ctx, billing.CustomerRequest{UserID: id.ID, Email: id.Email})
	if err != nil {
		b.log.ErrorContext(ctx, "create customer failed", logger.UserID(id.ID), logger.Error(err))
		return "", err
	}

	stored, err := b.store.AttachCustomer(ctx, id.ID, created)
	if err != nil {
		return "", fmt.Errorf("attach customer: %w", err)
	}
	if stored != created {
		b.log.WarnContext(ctx, "concurrent checkout attached another customer",
			logger.UserID(id.ID), logger.CustomerID(stored), slog.String("orphan_customer_id", created))
	}
	return stored, nil
}
