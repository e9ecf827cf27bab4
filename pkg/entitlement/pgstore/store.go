package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/pg"
)

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists entitlement records in Postgres.
type Store struct {
	db DB
}

// New returns a Store backed by db.
func New(db DB) *Store {
	if db == nil {
		panic("pgstore: db is required")
	}
	return &Store{db: db}
}

const selectRecord = `
SELECT user_id, trial_ends_at, subscription_status, current_period_end,
       stripe_customer_id, stripe_subscription_id, last_event_at, updated_at
FROM entitlements
WHERE user_id = $1`

// Get implements entitlement.Store.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error) {
	var (
		rec                          entitlement.Record
		status, customer, subscriber *string
	)
	err := s.db.QueryRow(ctx, selectRecord, userID).Scan(
		&rec.UserID,
		&rec.TrialEndsAt,
		&status,
		&rec.CurrentPeriodEnd,
		&customer,
		&subscriber,
		&rec.LastEventAt,
		&rec.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, entitlement.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select entitlement: %w", err)
	}
	rec.SubscriptionStatus = deref(status)
	rec.StripeCustomerID = deref(customer)
	rec.StripeSubscriptionID = deref(subscriber)
	return &rec, nil
}

// The COALESCE keeps the first stored customer, so concurrent first
// checkouts converge on one id. A row created here gets no trial; the column
// default applies to signups only.
const attachCustomer = `
INSERT INTO entitlements (user_id, stripe_customer_id, trial_ends_at)
VALUES ($1, $2, NULL)
ON CONFLICT (user_id) DO UPDATE
SET stripe_customer_id = COALESCE(entitlements.stripe_customer_id, EXCLUDED.stripe_customer_id),
    updated_at = CASE WHEN entitlements.stripe_customer_id IS NULL THEN now() ELSE entitlements.updated_at END
RETURNING stripe_customer_id`

// AttachCustomer implements entitlement.Store.
func (s *Store) AttachCustomer(ctx context.Context, userID uuid.UUID, customerID string) (string, error) {
	if userID == uuid.Nil {
		return "", entitlement.ErrMissingUser
	}
	if customerID == "" {
		return "", entitlement.ErrMissingCustomer
	}
	var stored string
	if err := s.db.QueryRow(ctx, attachCustomer, userID, customerID).Scan(&stored); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("attach customer %s: %w", customerID, entitlement.ErrCustomerTaken)
		}
		return "", fmt.Errorf("attach customer: %w", err)
	}
	return stored, nil
}

const (
	lockByCustomer = `SELECT user_id FROM entitlements WHERE stripe_customer_id = $1 FOR UPDATE`
	lockByUser     = `SELECT user_id FROM entitlements WHERE user_id = $1 FOR UPDATE`

	// Events older than the last applied one leave the row untouched.
	applySubscription = `
UPDATE entitlements
SET subscription_status    = NULLIF($2, ''),
    current_period_end     = $3,
    stripe_customer_id     = COALESCE(stripe_customer_id, NULLIF($4, '')),
    stripe_subscription_id = NULLIF($5, ''),
    last_event_at          = $6,
    updated_at             = now()
WHERE user_id = $1
  AND (last_event_at IS NULL OR last_event_at <= $6)`

	journalEvent = `
INSERT INTO billing_events (provider, event_id, event_type, customer_id, user_id, occurred_at, applied)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
ON CONFLICT (provider, event_id) DO NOTHING`
)

// ApplySubscription implements entitlement.Store. The lookup, the guarded
// update and the journal entry share one transaction.
func (s *Store) ApplySubscription(ctx context.Context, c entitlement.SubscriptionChange) (entitlement.ApplyResult, error) {
	if c.CustomerID == "" && c.UserID == nil {
		return entitlement.ApplyResult{}, entitlement.ErrMissingCustomer
	}

	var res entitlement.ApplyResult
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		res = entitlement.ApplyResult{}

		userID, found, err := lockTarget(ctx, tx, c)
		if err != nil {
			return err
		}
		if found {
			res.Matched = true
			res.UserID = userID

			tag, err := tx.Exec(ctx, applySubscription,
				userID,
				c.Status,
				c.CurrentPeriodEnd,
				c.CustomerID,
				c.SubscriptionID,
				c.EventAt,
			)
			if err != nil {
				return fmt.Errorf("update entitlement: %w", err)
			}
			res.Applied = tag.RowsAffected() == 1
		}

		if c.EventID == "" {
			return nil
		}
		var journalUser *uuid.UUID
		if found {
			journalUser = &userID
		} else {
			journalUser = c.UserID
		}
		if _, err := tx.Exec(ctx, journalEvent,
			c.Provider, c.EventID, c.EventType, c.CustomerID, journalUser, c.EventAt, res.Applied,
		); err != nil {
			return fmt.Errorf("journal billing event: %w", err)
		}
		return nil
	})
	if err != nil {
		return entitlement.ApplyResult{}, err
	}
	return res, nil
}

func lockTarget(ctx context.Context, tx pgx.Tx, c entitlement.SubscriptionChange) (uuid.UUID, bool, error) {
	var userID uuid.UUID
	if c.CustomerID != "" {
		err := tx.QueryRow(ctx, lockByCustomer, c.CustomerID).Scan(&userID)
		switch {
		case err == nil:
			return userID, true, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return uuid.Nil, false, fmt.Errorf("lookup by customer: %w", err)
		}
	}
	if c.UserID == nil {
		return uuid.Nil, false, nil
	}
	err := tx.QueryRow(ctx, lockByUser, *c.UserID).Scan(&userID)
	switch {
	case err == nil:
		return userID, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return uuid.Nil, false, nil
	default:
		return uuid.Nil, false, fmt.Errorf("lookup by user: %w", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ entitlement.Store = (*Store)(nil)
