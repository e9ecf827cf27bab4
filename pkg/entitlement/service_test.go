package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/liberta-app/liberta/pkg/entitlement"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error) {
	args := m.Called(ctx, userID)
	if rec := args.Get(0); rec != nil {
		return rec.(*entitlement.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) AttachCustomer(ctx context.Context, userID uuid.UUID, customerID string) (string, error) {
	args := m.Called(ctx, userID, customerID)
	return args.String(0), args.Error(1)
}

func (m *mockStore) ApplySubscription(ctx context.Context, change entitlement.SubscriptionChange) (entitlement.ApplyResult, error) {
	args := m.Called(ctx, change)
	return args.Get(0).(entitlement.ApplyResult), args.Error(1)
}

func TestNewService_PanicsWithoutStore(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { entitlement.NewService(nil) })
}

func TestService_Snapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := uuid.New()
	end := time.Now().Add(time.Hour)

	t.Run("row present", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		store.On("Get", ctx, user).Return(&entitlement.Record{UserID: user, TrialEndsAt: &end, SubscriptionStatus: "past_due"}, nil)

		snap, err := entitlement.NewService(store).Snapshot(ctx, user)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, &end, snap.TrialEndsAt)
		assert.Equal(t, "past_due", snap.SubscriptionStatus)
		store.AssertExpectations(t)
	})

	t.Run("row absent", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		store.On("Get", ctx, user).Return(nil, entitlement.ErrNotFound)

		snap, err := entitlement.NewService(store).Snapshot(ctx, user)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		store.On("Get", ctx, user).Return(nil, errors.New("connection refused"))

		snap, err := entitlement.NewService(store).Snapshot(ctx, user)
		assert.ErrorIs(t, err, entitlement.ErrStoreFailure)
		assert.Nil(t, snap)
	})
}

func TestService_Evaluate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("no session skips the store", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		svc := entitlement.NewService(store, entitlement.WithNow(clock))

		d, snap, err := svc.Evaluate(ctx, nil, "/app/dashboard")
		require.NoError(t, err)
		assert.Nil(t, snap)
		assert.Equal(t, entitlement.StateNoSession, d.State)
		assert.Equal(t, "/app/dashboard", d.ReturnTo)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("trial running", func(t *testing.T) {
		t.Parallel()
		user := uuid.New()
		end := now.Add(2 * time.Hour)
		store := &mockStore{}
		store.On("Get", ctx, user).Return(&entitlement.Record{UserID: user, TrialEndsAt: &end}, nil)

		d, snap, err := entitlement.NewService(store, entitlement.WithNow(clock)).Evaluate(ctx, &user, "/app")
		require.NoError(t, err)
		assert.Equal(t, entitlement.StateOK, d.State)
		require.NotNil(t, snap)
		assert.Equal(t, end, *snap.TrialEndsAt)
	})

	t.Run("custom gate", func(t *testing.T) {
		t.Parallel()
		user := uuid.New()
		store := &mockStore{}
		store.On("Get", ctx, user).Return(nil, entitlement.ErrNotFound)

		svc := entitlement.NewService(store,
			entitlement.WithNow(clock),
			entitlement.WithGate(entitlement.NewGate(entitlement.WithPaywallPath("/pricing"))),
		)
		d, snap, err := svc.Evaluate(ctx, &user, "/app")
		require.NoError(t, err)
		assert.Nil(t, snap)
		assert.Equal(t, entitlement.Decision{State: entitlement.StatePaywall, Redirect: "/pricing"}, d)
	})

	t.Run("store failure is not ok", func(t *testing.T) {
		t.Parallel()
		user := uuid.New()
		store := &mockStore{}
		store.On("Get", ctx, user).Return(nil, errors.New("timeout"))

		d, _, err := entitlement.NewService(store, entitlement.WithNow(clock)).Evaluate(ctx, &user, "/app")
		require.Error(t, err)
		assert.False(t, d.Allowed())
	})
}
