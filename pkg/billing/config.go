package billing

import (
	"fmt"
	"strings"
)

// Provider names accepted by Config.Provider.
const (
	ProviderStripe = "stripe"
	ProviderPaddle = "paddle"
)

// Config selects the payment provider.
type Config struct {
	Provider string `env:"BILLING_PROVIDER" envDefault:"stripe"`
}

// Normalize returns the lowercase provider name or ErrUnsupportedProvider.
func (c Config) Normalize() (string, error) {
	name := strings.ToLower(strings.TrimSpace(c.Provider))
	switch name {
	case ProviderStripe, ProviderPaddle:
		return name, nil
	case "":
		return ProviderStripe, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Provider)
}

// StripeConfig holds Stripe credentials. PriceID is optional at startup and
// checked when a checkout is requested.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	PriceID       string `env:"STRIPE_PRICE_ID"`
}

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceID       string `env:"PADDLE_PRICE_ID"`
}
