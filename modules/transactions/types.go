package transactions

import (
	"time"

	"github.com/google/uuid"
)

// Type says which way the money moved.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// DateLayout is the wire and storage format of Transaction.Date.
const DateLayout = "2006-01-02"

// Transaction is one income or expense entry. AmountCents is signed:
// expenses are negative.
type Transaction struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Description string    `db:"description"`
	AmountCents int64     `db:"amount_cents"`
	Type        Type      `db:"type"`
	Category    string    `db:"category"`
	Date        time.Time `db:"occurred_on"`
	CreatedAt   time.Time `db:"created_at"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Type  Type
	Query string // case-insensitive substring of the description
}

// Input is an unvalidated create request.
type Input struct {
	Description string
	Amount      string // positive decimal; "," is accepted as the separator
	Type        string
	Category    string
	Date        string // YYYY-MM-DD
}
