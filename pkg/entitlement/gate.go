package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// State is the outcome of an access decision.
type State string

const (
	StateLoading   State = "loading"
	StateNoSession State = "no_session"
	StatePaywall   State = "paywall"
	StateOK        State = "ok"
)

// Default redirect targets used by Decide.
const (
	DefaultLoginPath   = "/login"
	DefaultPaywallPath = "/app/paywall"
)

// Input is everything the gate looks at. Loading flags model the two
// asynchronous lookups a caller may still be waiting for.
type Input struct {
	AuthLoading        bool
	User               *uuid.UUID
	EntitlementLoading bool
	Entitlement        *Snapshot
	RequestedPath      string
}

// Decision is what the caller should do with the request.
type Decision struct {
	State    State  `json:"state"`
	Redirect string `json:"redirect,omitempty"`
	ReturnTo string `json:"return_to,omitempty"`
}

// Allowed reports whether the protected content may be shown.
func (d Decision) Allowed() bool { return d.State == StateOK }

// Gate holds the redirect targets for Decide.
type Gate struct {
	loginPath   string
	paywallPath string
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLoginPath overrides where unauthenticated visitors are sent.
func WithLoginPath(p string) GateOption {
	return func(g *Gate) {
		if p != "" {
			g.loginPath = p
		}
	}
}

// WithPaywallPath overrides where visitors without access are sent.
func WithPaywallPath(p string) GateOption {
	return func(g *Gate) {
		if p != "" {
			g.paywallPath = p
		}
	}
}

// NewGate returns a gate with the default paths unless overridden.
func NewGate(opts ...GateOption) Gate {
	g := Gate{loginPath: DefaultLoginPath, paywallPath: DefaultPaywallPath}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

// Decide applies the access rules in order; the first match wins.
// It has no side effects and never blocks.
func (g Gate) Decide(in Input, now time.Time) Decision {
	if in.AuthLoading {
		return Decision{State: StateLoading}
	}
	if in.User == nil {
		return Decision{State: StateNoSession, Redirect: g.loginPath, ReturnTo: in.RequestedPath}
	}
	if in.EntitlementLoading {
		return Decision{State: StateLoading}
	}

	var snap Snapshot
	if in.Entitlement != nil {
		snap = *in.Entitlement
	}
	if IsEntitled(snap.SubscriptionStatus) || TrialValid(snap.TrialEndsAt, now) {
		return Decision{State: StateOK}
	}
	return Decision{State: StatePaywall, Redirect: g.paywallPath}
}

// Decide runs the default gate.
func Decide(in Input, now time.Time) Decision {
	return NewGate().Decide(in, now)
}

// IsEntitled reports whether a subscription status grants access.
// The comparison is exact and case-sensitive.
func IsEntitled(status Status) bool {
	return status == StatusActive || status == StatusTrialing
}

// TrialValid reports whether the trial is still running at now.
// The end instant itself still counts as valid.
func TrialValid(trialEndsAt *time.Time, now time.Time) bool {
	return trialEndsAt != nil && !now.After(*trialEndsAt)
}
