package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/liberta-app/liberta/pkg/billing"
	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/logger"
	"github.com/liberta-app/liberta/pkg/metrics"
)

// Reconciliation outcomes, also used as metric labels.
const (
	OutcomeApplied   = "applied"
	OutcomeStale     = "stale"
	OutcomeUnmatched = "unmatched"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Invalidator drops cached entitlement state for a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Outcome reports what Handle did with one delivery.
type Outcome struct {
	EventID      string
	EventType    billing.EventType
	ProviderType string
	Result       string
	UserID       uuid.UUID // zero unless a row matched
}

// Reconciler verifies webhook deliveries and folds subscription state into
// the entitlement store.
type Reconciler struct {
	provider    billing.Provider
	store       entitlement.Store
	invalidator Invalidator
	log         *slog.Logger
	metrics     *metrics.Metrics
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithInvalidator sets the cache to purge after an applied change.
func WithInvalidator(inv Invalidator) ReconcilerOption {
	return func(r *Reconciler) { r.invalidator = inv }
}

// WithReconcilerLogger sets the logger.
func WithReconcilerLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// WithReconcilerMetrics records reconciliation outcomes.
func WithReconcilerMetrics(m *metrics.Metrics) ReconcilerOption {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler builds a Reconciler.
func NewReconciler(provider billing.Provider, store entitlement.Store, opts ...ReconcilerOption) *Reconciler {
	if provider == nil || store == nil {
		panic("billing: NewReconciler requires a provider and a store")
	}
	r := &Reconciler{
		provider: provider,
		store:    store,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("billing.reconciler"), logger.Provider(provider.Name()))
	return r
}

// Provider returns the provider whose deliveries Handle accepts.
func (r *Reconciler) Provider() billing.Provider { return r.provider }

// Handle verifies payload and applies it. Nothing is written when
// verification fails. An event for an unknown customer is acknowledged
// with OutcomeUnmatched rather than failed, since redelivery cannot fix it.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	ev, err := r.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		r.metrics.Reconciled(r.provider.Name(), OutcomeRejected)
		r.log.WarnContext(ctx, "webhook rejected", logger.Error(err))
		if errors.Is(err, billing.ErrSignatureVerification) {
			return nil, errors.Join(ErrInvalidSignature, err)
		}
		return nil, errors.Join(ErrInvalidEvent, err)
	}

	out := &Outcome{EventID: ev.ID, EventType: ev.Type, ProviderType: ev.ProviderType}
	log := r.log.With(logger.EventID(ev.ID), logger.EventType(ev.ProviderType))

	if !ev.Type.IsSubscription() || ev.Subscription == nil {
		out.Result = OutcomeIgnored
		r.metrics.Reconciled(r.provider.Name(), out.Result)
		log.DebugContext(ctx, "webhook event ignored")
		return out, nil
	}

	sub := ev.Subscription
	status := sub.Status
	if status == "" && ev.Type == billing.EventSubscriptionDeleted {
		status = entitlement.StatusCanceled
	}

	res, err := r.store.ApplySubscription(ctx, entitlement.SubscriptionChange{
		Provider:         r.provider.Name(),
		EventID:          ev.ID,
		EventType:        ev.ProviderType,
		CustomerID:       sub.CustomerID,
		SubscriptionID:   sub.ID,
		Status:           status,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		EventAt:          ev.CreatedAt,
		UserID:           sub.UserID,
	})
	if err != nil {
		r.metrics.Reconciled(r.provider.Name(), OutcomeFailed)
		log.ErrorContext(ctx, "apply subscription failed", logger.CustomerID(sub.CustomerID), logger.Error(err))
		return nil, fmt.Errorf("apply subscription event %s: %w", ev.ID, err)
	}

	log = log.With(logger.CustomerID(sub.CustomerID), logger.SubscriptionID(sub.ID), logger.Status(status))
	switch {
	case !res.Matched:
		out.Result = OutcomeUnmatched
		log.WarnContext(ctx, "no entitlement for customer")
	case !res.Applied:
		out.Result = OutcomeStale
		out.UserID = res.UserID
		log.InfoContext(ctx, "stale subscription event skipped", logger.UserID(res.UserID))
	default:
		out.Result = OutcomeApplied
		out.UserID = res.UserID
		log.InfoContext(ctx, "subscription applied", logger.UserID(res.UserID))
		if r.invalidator != nil {
			if err := r.invalidator.Invalidate(ctx, res.UserID); err != nil {
				log.WarnContext(ctx, "entitlement cache invalidation failed", logger.Error(err))
			}
		}
	}
	r.metrics.Reconciled(r.provider.Name(), out.Result)
	return out, nil
}
