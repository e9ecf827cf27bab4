// Package billing abstracts the payment provider behind a small interface.
//
// The provider owns everything that touches money: hosted checkout, the
// self-service portal, invoices and cancellation. This package only opens
// those hosted pages and turns signed webhook deliveries into Events.
//
// Two implementations are available:
//
//   - StripeProvider (stripe-go) with subscription-mode Checkout Sessions,
//     the Billing Portal and Stripe-Signature verification.
//   - PaddleProvider (paddle-go-sdk) with transactions, customer portal
//     sessions and Paddle-Signature verification.
//
// Customers are tagged with MetadataUserID so a subscription event can be
// traced back to a user even before its customer id has been stored.
//
// # Usage
//
//	p, err := billing.NewStripeProvider(cfg)
//	if err != nil {
//		return err
//	}
//
//	ev, err := p.ParseWebhook(ctx, body, r.Header.Get(p.SignatureHeader()))
//	if errors.Is(err, billing.ErrSignatureVerification) {
//		// reject without touching any state
//	}
package billing
