package billing

import "errors"

var (
	ErrMissingAPIKey         = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret  = errors.New("billing provider webhook secret is required")
	ErrMissingPriceID        = errors.New("price ID is required")
	ErrMissingCustomerID     = errors.New("provider customer ID is required")
	ErrMissingEmail          = errors.New("customer email is required")
	ErrSignatureVerification = errors.New("webhook signature verification failed")
	ErrMalformedEvent        = errors.New("malformed webhook event")
	ErrNoCheckoutURL         = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL           = errors.New("no portal URL returned from provider")
	ErrInvalidEnvironment    = errors.New("invalid billing provider environment")
	ErrUnsupportedProvider   = errors.New("unsupported billing provider")
)
