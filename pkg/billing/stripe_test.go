package billing_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/liberta-app/liberta/pkg/billing"
)

const stripeWebhookSecret = "whsec_test_secret"

func newStripeProvider(t *testing.T, opts ...billing.StripeOption) *billing.StripeProvider {
	t.Helper()
	p, err := billing.NewStripeProvider(billing.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: stripeWebhookSecret,
	}, opts...)
	require.NoError(t, err)
	return p
}

func signStripe(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Header
}

func stripeEvent(t *testing.T, id, typ string, created int64, object map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        typ,
		"created":     created,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return b
}

func TestNewStripeProvider_Validation(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripeProvider(billing.StripeConfig{WebhookSecret: "whsec"})
	assert.ErrorIs(t, err, billing.ErrMissingAPIKey)

	_, err = billing.NewStripeProvider(billing.StripeConfig{SecretKey: "sk"})
	assert.ErrorIs(t, err, billing.ErrMissingWebhookSecret)

	p := newStripeProvider(t)
	assert.Equal(t, "stripe", p.Name())
	assert.Equal(t, "Stripe-Signature", p.SignatureHeader())
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	p := newStripeProvider(t)
	ctx := context.Background()
	userID := uuid.New()
	periodEnd := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("subscription updated with top-level period end", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "evt_1", "customer.subscription.updated", 1760000000, map[string]any{
			"id":                 "sub_1",
			"object":             "subscription",
			"customer":           "cus_1",
			"status":             "active",
			"current_period_end": periodEnd.Unix(),
			"metadata":           map[string]string{"supabase_user_id": userID.String()},
		})

		ev, err := p.ParseWebhook(ctx, payload, signStripe(t, payload, stripeWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, billing.EventSubscriptionUpdated, ev.Type)
		assert.Equal(t, "customer.subscription.updated", ev.ProviderType)
		assert.Equal(t, time.Unix(1760000000, 0).UTC(), ev.CreatedAt)
		require.NotNil(t, ev.Subscription)
		assert.Equal(t, "sub_1", ev.Subscription.ID)
		assert.Equal(t, "cus_1", ev.Subscription.CustomerID)
		assert.Equal(t, "active", ev.Subscription.Status)
		require.NotNil(t, ev.Subscription.CurrentPeriodEnd)
		assert.Equal(t, periodEnd, *ev.Subscription.CurrentPeriodEnd)
		require.NotNil(t, ev.Subscription.UserID)
		assert.Equal(t, userID, *ev.Subscription.UserID)
	})

	t.Run("period end from first item and expanded customer", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "evt_2", "customer.subscription.created", 1760000001, map[string]any{
			"id":       "sub_2",
			"customer": map[string]any{"id": "cus_2", "object": "customer"},
			"status":   "incomplete",
			"items": map[string]any{
				"object": "list",
				"data":   []any{map[string]any{"id": "si_1", "current_period_end": periodEnd.Unix()}},
			},
		})

		ev, err := p.ParseWebhook(ctx, payload, signStripe(t, payload, stripeWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionCreated, ev.Type)
		assert.Equal(t, "cus_2", ev.Subscription.CustomerID)
		assert.Equal(t, "incomplete", ev.Subscription.Status)
		require.NotNil(t, ev.Subscription.CurrentPeriodEnd)
		assert.Equal(t, periodEnd, *ev.Subscription.CurrentPeriodEnd)
		assert.Nil(t, ev.Subscription.UserID)
	})

	t.Run("deleted subscription without period end", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "evt_3", "customer.subscription.deleted", 1760000002, map[string]any{
			"id":       "sub_3",
			"customer": "cus_3",
			"status":   "canceled",
		})

		ev, err := p.ParseWebhook(ctx, payload, signStripe(t, payload, stripeWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionDeleted, ev.Type)
		assert.Equal(t, "canceled", ev.Subscription.Status)
		assert.Nil(t, ev.Subscription.CurrentPeriodEnd)
	})

	t.Run("unrelated event", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "evt_4", "invoice.paid", 1760000003, map[string]any{"id": "in_1"})

		ev, err := p.ParseWebhook(ctx, payload, signStripe(t, payload, stripeWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.EventOther, ev.Type)
		assert.Equal(t, "invoice.paid", ev.ProviderType)
		assert.Nil(t, ev.Subscription)
	})

	t.Run("checkout completed", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "evt_5", "checkout.session.completed", 1760000004, map[string]any{"id": "cs_1"})

		ev, err := p.ParseWebhook(ctx, payload, signStripe(t, payload, stripeWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.EventCheckoutCompleted, ev.Type)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "evt_6", "customer.subscription.updated", 1760000005, map[string]any{"id": "sub_6"})

		_, err := p.ParseWebhook(ctx, payload, signStripe(t, payload, "whsec_other"))
		assert.ErrorIs(t, err, billing.ErrSignatureVerification)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "evt_7", "customer.subscription.updated", 1760000006, map[string]any{"id": "sub_7", "status": "canceled"})
		sig := signStripe(t, payload, stripeWebhookSecret)
		tampered := stripeEvent(t, "evt_7", "customer.subscription.updated", 1760000006, map[string]any{"id": "sub_7", "status": "active"})

		_, err := p.ParseWebhook(ctx, tampered, sig)
		assert.ErrorIs(t, err, billing.ErrSignatureVerification)
	})

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()
		_, err := p.ParseWebhook(ctx, []byte(`{}`), "")
		assert.ErrorIs(t, err, billing.ErrSignatureVerification)
	})
}

type stripeAPIStub struct {
	server    *httptest.Server
	customers atomic.Int32

	mu   sync.Mutex
	keys []string
}

func (s *stripeAPIStub) idempotencyKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

func newStripeAPIStub(t *testing.T) *stripeAPIStub {
	t.Helper()
	stub := &stripeAPIStub{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		n := stub.customers.Add(1)
		assert.NotEmpty(t, r.Form.Get("metadata[supabase_user_id]"))
		key := r.Header.Get("Idempotency-Key")
		assert.True(t, strings.HasPrefix(key, "customer-"+r.Form.Get("metadata[supabase_user_id]")+"-"), key)
		stub.mu.Lock()
		stub.keys = append(stub.keys, key)
		stub.mu.Unlock()
		writeStripeJSON(w, http.StatusOK, map[string]any{"id": fmt.Sprintf("cus_%d", n), "object": "customer"})
	})
	mux.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.Form.Get("line_items[0][price]") == "price_missing" {
			writeStripeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"type": "invalid_request_error", "message": "No such price: 'price_missing'"},
			})
			return
		}
		assert.Equal(t, "subscription", r.Form.Get("mode"))
		assert.Equal(t, "1", r.Form.Get("line_items[0][quantity]"))
		assert.Equal(t, "true", r.Form.Get("allow_promotion_codes"))
		assert.NotEmpty(t, r.Form.Get("metadata[supabase_user_id]"))
		assert.Equal(t, r.Form.Get("metadata[supabase_user_id]"), r.Form.Get("subscription_data[metadata][supabase_user_id]"))
		writeStripeJSON(w, http.StatusOK, map[string]any{
			"id":         "cs_test_1",
			"object":     "checkout.session",
			"url":        "https://checkout.stripe.com/c/pay/cs_test_1",
			"customer":   r.Form.Get("customer"),
			"expires_at": 1760086400,
		})
	})
	mux.HandleFunc("/v1/billing_portal/sessions", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		writeStripeJSON(w, http.StatusOK, map[string]any{
			"id":         "bps_1",
			"object":     "billing_portal.session",
			"url":        "https://billing.stripe.com/p/session/test_" + r.Form.Get("customer"),
			"return_url": r.Form.Get("return_url"),
		})
	})

	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *stripeAPIStub) backends() *stripe.Backends {
	b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(s.server.URL),
		HTTPClient:        s.server.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: b, Connect: b, Uploads: b}
}

func writeStripeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestStripeProvider_HostedSessions(t *testing.T) {
	t.Parallel()

	stub := newStripeAPIStub(t)
	p := newStripeProvider(t, billing.WithStripeBackends(stub.backends()))
	ctx := context.Background()
	userID := uuid.New()

	customerID, err := p.CreateCustomer(ctx, billing.CustomerRequest{UserID: userID, Email: "dani@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", customerID)

	link, err := p.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		UserID:     userID,
		CustomerID: customerID,
		PriceID:    "price_monthly",
		SuccessURL: "https://liberta.app/app?checkout=success",
		CancelURL:  "https://liberta.app/app/paywall?checkout=cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", link.URL)
	assert.Equal(t, "cs_test_1", link.SessionID)
	assert.Equal(t, time.Unix(1760086400, 0).UTC(), link.ExpiresAt)

	portal, err := p.CreatePortalSession(ctx, billing.PortalRequest{CustomerID: customerID, ReturnURL: "https://liberta.app/app"})
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session/test_cus_1", portal.URL)

	_, err = p.CreateCheckoutSession(ctx, billing.CheckoutRequest{UserID: userID, CustomerID: customerID, PriceID: "price_missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such price")
}

func TestStripeProvider_RequestValidation(t *testing.T) {
	t.Parallel()

	p := newStripeProvider(t)
	ctx := context.Background()

	_, err := p.CreateCheckoutSession(ctx, billing.CheckoutRequest{CustomerID: "cus_1"})
	assert.ErrorIs(t, err, billing.ErrMissingPriceID)

	_, err = p.CreateCheckoutSession(ctx, billing.CheckoutRequest{PriceID: "price_1"})
	assert.ErrorIs(t, err, billing.ErrMissingCustomerID)

	_, err = p.CreatePortalSession(ctx, billing.PortalRequest{})
	assert.ErrorIs(t, err, billing.ErrMissingCustomerID)
}

func TestStripeProvider_CustomerIdempotencyKey(t *testing.T) {
	t.Parallel()

	stub := newStripeAPIStub(t)
	p := newStripeProvider(t, billing.WithStripeBackends(stub.backends()))
	ctx := context.Background()
	userID := uuid.New()

	for _, email := range []string{"lia@example.com", "lia@example.com", "lia@novo.example.com"} {
		_, err := p.CreateCustomer(ctx, billing.CustomerRequest{UserID: userID, Email: email})
		require.NoError(t, err)
	}

	keys := stub.idempotencyKeys()
	require.Len(t, keys, 3)
	assert.Equal(t, keys[0], keys[1], "a retry with the same parameters reuses the key")
	assert.NotEqual(t, keys[0], keys[2], "a changed email gets a new key")
}
