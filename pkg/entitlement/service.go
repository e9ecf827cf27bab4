package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service reads entitlements from a Store and evaluates the gate.
type Service struct {
	store Store
	gate  Gate
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithGate replaces the gate used by Evaluate.
func WithGate(g Gate) ServiceOption {
	return func(s *Service) { s.gate = g }
}

// WithNow injects the clock.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service. Panics when store is nil.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("entitlement: store is required")
	}
	s := &Service{store: store, gate: NewGate(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot implements Reader.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return rec.Snapshot(), nil
}

// Evaluate loads the user's snapshot and runs the gate against it.
// A nil userID means there is no session; the store is not consulted.
func (s *Service) Evaluate(ctx context.Context, userID *uuid.UUID, requestedPath string) (Decision, *Snapshot, error) {
	return Evaluate(ctx, s, s.gate, s.now(), userID, requestedPath)
}

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

// Evaluate runs the gate for userID against any Reader. Read failures are
// returned as errors and never turn into an ok decision.
func Evaluate(ctx context.Context, r Reader, g Gate, now time.Time, userID *uuid.UUID, requestedPath string) (Decision, *Snapshot, error) {
	in := Input{User: userID, RequestedPath: requestedPath}
	if userID == nil {
		return g.Decide(in, now), nil, nil
	}
	snap, err := r.Snapshot(ctx, *userID)
	if err != nil {
		return Decision{}, nil, err
	}
	in.Entitlement = snap
	return g.Decide(in, now), snap, nil
}
