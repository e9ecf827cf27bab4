package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same semantics as the
// Postgres one. It is meant for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	now     func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock injects the clock used for UpdatedAt.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[uuid.UUID]*Record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put inserts or replaces a record.
func (s *MemoryStore) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := rec
	s.records[rec.UserID] = &r
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// AttachCustomer implements Store. A row created here carries no trial;
// trials are granted at signup only.
func (s *MemoryStore) AttachCustomer(_ context.Context, userID uuid.UUID, customerID string) (string, error) {
	if userID == uuid.Nil {
		return "", ErrMissingUser
	}
	if customerID == "" {
		return "", ErrMissingCustomer
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner := s.byCustomer(customerID); owner != nil && owner.UserID != userID {
		return "", ErrCustomerTaken
	}

	rec, ok := s.records[userID]
	if !ok {
		rec = &Record{UserID: userID, UpdatedAt: s.now()}
		s.records[userID] = rec
	}
	if rec.StripeCustomerID == "" {
		rec.StripeCustomerID = customerID
		rec.UpdatedAt = s.now()
	}
	return rec.StripeCustomerID, nil
}

// ApplySubscription implements Store.
func (s *MemoryStore) ApplySubscription(_ context.Context, c SubscriptionChange) (ApplyResult, error) {
	if c.CustomerID == "" && c.UserID == nil {
		return ApplyResult{}, ErrMissingCustomer
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.byCustomer(c.CustomerID)
	if rec == nil && c.UserID != nil {
		rec = s.records[*c.UserID]
	}
	if rec == nil {
		return ApplyResult{}, nil
	}

	res := ApplyResult{Matched: true, UserID: rec.UserID}
	if rec.LastEventAt != nil && c.EventAt.Before(*rec.LastEventAt) {
		return res, nil
	}

	at := c.EventAt
	rec.SubscriptionStatus = c.Status
	rec.StripeSubscriptionID = c.SubscriptionID
	rec.CurrentPeriodEnd = c.CurrentPeriodEnd
	rec.LastEventAt = &at
	if rec.StripeCustomerID == "" {
		rec.StripeCustomerID = c.CustomerID
	}
	rec.UpdatedAt = s.now()
	res.Applied = true
	return res, nil
}

func (s *MemoryStore) byCustomer(customerID string) *Record {
	if customerID == "" {
		return nil
	}
	for _, rec := range s.records {
		if rec.StripeCustomerID == customerID {
			return rec
		}
	}
	return nil
}
