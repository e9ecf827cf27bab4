package transactions

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps transactions in the transactions table.
type PGStore struct {
	db    DB
	limit int
}

// NewPGStore returns a Postgres-backed Store. List returns at most 500 rows.
func NewPGStore(db DB) *PGStore {
	if db == nil {
		panic("transactions: db is required")
	}
	return &PGStore{db: db, limit: 500}
}

const listTransactions = `
SELECT id, user_id, description, amount_cents, type, category, occurred_on, created_at
FROM transactions
WHERE user_id = $1
  AND ($2::text = '' OR type = $2::text)
  AND ($3::text = '' OR description ILIKE '%' || $3::text || '%' ESCAPE '\')
ORDER BY occurred_on DESC, created_at DESC
LIMIT $4`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List implements Store.
func (s *PGStore) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, listTransactions, userID, string(f.Type), likeEscaper.Replace(f.Query), s.limit)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Transaction])
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return out, nil
}

const insertTransaction = `
INSERT INTO transactions (id, user_id, description, amount_cents, type, category, occurred_on)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`

// Create implements Store. A zero ID is replaced with a UUIDv7.
func (s *PGStore) Create(ctx context.Context, tx Transaction) (Transaction, error) {
	if tx.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return Transaction{}, err
		}
		tx.ID = id
	}
	err := s.db.QueryRow(ctx, insertTransaction,
		tx.ID, tx.UserID, tx.Description, tx.AmountCents, string(tx.Type), tx.Category, tx.Date,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return Transaction{}, errors.Join(ErrStoreFailure, err)
	}
	return tx, nil
}
