package transactions

import (
	"context"

	"github.com/google/uuid"
)

// Store persists transactions. Every call is scoped to one user.
type Store interface {
	List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error)
	Create(ctx context.Context, tx Transaction) (Transaction, error)
}
