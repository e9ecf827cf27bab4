package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liberta-app/liberta/pkg/entitlement"
)

func TestMemoryStore_AttachCustomer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := entitlement.NewMemoryStore(entitlement.WithMemoryClock(func() time.Time { return now }))
	user := uuid.New()

	_, err := store.Get(ctx, user)
	assert.ErrorIs(t, err, entitlement.ErrNotFound)

	id, err := store.AttachCustomer(ctx, user, "cus_first")
	require.NoError(t, err)
	assert.Equal(t, "cus_first", id)

	id, err = store.AttachCustomer(ctx, user, "cus_second")
	require.NoError(t, err)
	assert.Equal(t, "cus_first", id, "first writer wins")

	rec, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "cus_first", rec.StripeCustomerID)
	assert.Nil(t, rec.TrialEndsAt, "attaching a customer never grants a trial")
	assert.Equal(t, now, rec.UpdatedAt)

	_, err = store.AttachCustomer(ctx, user, "")
	assert.ErrorIs(t, err, entitlement.ErrMissingCustomer)
}

func TestMemoryStore_ApplySubscription(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	user := uuid.New()

	store := entitlement.NewMemoryStore()
	store.Put(entitlement.Record{UserID: user, StripeCustomerID: "cus_1"})

	change := func(status string, at time.Time) entitlement.SubscriptionChange {
		return entitlement.SubscriptionChange{CustomerID: "cus_1", SubscriptionID: "sub_1", Status: status, EventAt: at}
	}

	res, err := store.ApplySubscription(ctx, change("active", base))
	require.NoError(t, err)
	assert.Equal(t, entitlement.ApplyResult{Matched: true, Applied: true, UserID: user}, res)

	res, err = store.ApplySubscription(ctx, change("active", base))
	require.NoError(t, err)
	assert.True(t, res.Applied, "replay is accepted")

	res, err = store.ApplySubscription(ctx, change("canceled", base.Add(-time.Minute)))
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.False(t, res.Applied, "stale event is dropped")

	rec, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "active", rec.SubscriptionStatus)

	res, err = store.ApplySubscription(ctx, entitlement.SubscriptionChange{CustomerID: "cus_unknown", Status: "active", EventAt: base})
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestMemoryStore_ApplySubscription_FallsBackToUserID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	store := entitlement.NewMemoryStore()
	store.Put(entitlement.Record{UserID: user})

	res, err := store.ApplySubscription(ctx, entitlement.SubscriptionChange{
		CustomerID: "cus_9",
		Status:     "trialing",
		EventAt:    time.Now(),
		UserID:     &user,
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	rec, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "cus_9", rec.StripeCustomerID)
	assert.Equal(t, "trialing", rec.SubscriptionStatus)
}

func TestMemoryStore_AttachCustomerKeepsTrial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	trial := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)

	store := entitlement.NewMemoryStore()
	store.Put(entitlement.Record{UserID: user, TrialEndsAt: &trial})

	_, err := store.AttachCustomer(ctx, user, "cus_1")
	require.NoError(t, err)

	rec, err := store.Get(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, rec.TrialEndsAt)
	assert.Equal(t, trial, *rec.TrialEndsAt)
}

func TestMemoryStore_AttachCustomerTakenByAnotherUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := entitlement.NewMemoryStore()
	owner, other := uuid.New(), uuid.New()

	_, err := store.AttachCustomer(ctx, owner, "cus_shared")
	require.NoError(t, err)

	_, err = store.AttachCustomer(ctx, other, "cus_shared")
	assert.ErrorIs(t, err, entitlement.ErrCustomerTaken)

	_, err = store.Get(ctx, other)
	assert.ErrorIs(t, err, entitlement.ErrNotFound, "a rejected attach writes nothing")
}
