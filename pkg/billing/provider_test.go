package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liberta-app/liberta/pkg/billing"
)

func TestEventType_IsSubscription(t *testing.T) {
	t.Parallel()

	assert.True(t, billing.EventSubscriptionCreated.IsSubscription())
	assert.True(t, billing.EventSubscriptionUpdated.IsSubscription())
	assert.True(t, billing.EventSubscriptionDeleted.IsSubscription())
	assert.False(t, billing.EventCheckoutCompleted.IsSubscription())
	assert.False(t, billing.EventOther.IsSubscription())
}

func TestConfig_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "stripe", false},
		{"Stripe", "stripe", false},
		{" paddle ", "paddle", false},
		{"lemonsqueezy", "", true},
	}
	for _, tt := range tests {
		got, err := billing.Config{Provider: tt.in}.Normalize()
		if tt.wantErr {
			assert.ErrorIs(t, err, billing.ErrUnsupportedProvider)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
