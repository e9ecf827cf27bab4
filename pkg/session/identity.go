package session

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated user as reported by the identity provider.
// It is owned by the provider; this service never persists it.
type Identity struct {
	ID    uuid.UUID
	Email string
}

type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var identityContextKey = &contextKey{name: "session_identity"}

// WithIdentity stores the identity in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext returns the identity attached by Middleware or Optional.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok && id != nil
}
