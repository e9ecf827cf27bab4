package billing_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/liberta-app/liberta/pkg/billing"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string            { return "stripe" }
func (m *mockProvider) SignatureHeader() string { return "Stripe-Signature" }

func (m *mockProvider) CreateCustomer(ctx context.Context, req billing.CustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.Link, error) {
	args := m.Called(ctx, req)
	if link := args.Get(0); link != nil {
		return link.(*billing.Link), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, req billing.PortalRequest) (*billing.Link, error) {
	args := m.Called(ctx, req)
	if link := args.Get(0); link != nil {
		return link.(*billing.Link), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(ctx, payload, signature)
	if ev := args.Get(0); ev != nil {
		return ev.(*billing.Event), args.Error(1)
	}
	return nil, args.Error(1)
}
