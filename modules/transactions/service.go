package transactions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liberta-app/liberta/pkg/validator"
)

const (
	maxDescriptionLen = 200
	maxCategoryLen    = 60

	// MaxTransactionCents caps a single entry at 10,000,000.00.
	MaxTransactionCents = 1_000_000_000
)

// Service validates input before it reaches the Store.
type Service struct {
	store Store
}

// NewService wraps store.
func NewService(store Store) *Service {
	if store == nil {
		panic("transactions: store is required")
	}
	return &Service{store: store}
}

// List returns the user's transactions, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error) {
	f.Query = strings.TrimSpace(f.Query)
	return s.store.List(ctx, userID, f)
}

// Create validates in and stores it with the signed amount. Invalid input
// yields validator.ValidationErrors.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (Transaction, error) {
	description := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)
	kind := Type(strings.TrimSpace(in.Type))

	cents, amountErr := ParseAmount(in.Amount)
	date, dateErr := time.Parse(DateLayout, strings.TrimSpace(in.Date))

	err := validator.Apply(
		validator.MaxLen("description", description, maxDescriptionLen),
		validator.MaxLen("category", category, maxCategoryLen),
		validator.Required("amount", in.Amount),
		validator.When(strings.TrimSpace(in.Amount) != "",
			validator.Custom("amount", "invalid amount", func() bool { return amountErr == nil }),
			validator.PositiveAmount("amount", cents),
			validator.MaxAmount("amount", cents, MaxTransactionCents),
		),
		validator.Required("type", string(kind)),
		validator.When(kind != "", validator.OneOf("type", kind, TypeIncome, TypeExpense)),
		validator.Required("date", in.Date),
		validator.When(strings.TrimSpace(in.Date) != "",
			validator.Custom("date", "must be a YYYY-MM-DD date", func() bool { return dateErr == nil }),
		),
	)
	if err != nil {
		return Transaction{}, err
	}

	return s.store.Create(ctx, Transaction{
		UserID:      userID,
		Description: description,
		AmountCents: Signed(cents, kind),
		Type:        kind,
		Category:    category,
		Date:        date,
	})
}
