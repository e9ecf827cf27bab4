package entitlement

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liberta-app/liberta/pkg/logger"
)

// UserIDFunc extracts the authenticated user from a request.
// It returns nil when the request has no session.
type UserIDFunc func(r *http.Request) *uuid.UUID

// DecisionHook observes every decision RequireAccess makes.
type DecisionHook func(r *http.Request, d Decision)

type accessConfig struct {
	gate   Gate
	now    func() time.Time
	logger *slog.Logger
	hook   DecisionHook
}

// AccessOption configures RequireAccess.
type AccessOption func(*accessConfig)

// WithAccessGate sets the gate (and so the redirect targets) used by RequireAccess.
func WithAccessGate(g Gate) AccessOption {
	return func(c *accessConfig) { c.gate = g }
}

// WithAccessClock injects the clock used by RequireAccess.
func WithAccessClock(now func() time.Time) AccessOption {
	return func(c *accessConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithAccessLogger sets the logger for store failures.
func WithAccessLogger(l *slog.Logger) AccessOption {
	return func(c *accessConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDecisionHook registers a callback invoked after each decision.
func WithDecisionHook(h DecisionHook) AccessOption {
	return func(c *accessConfig) { c.hook = h }
}

// RequireAccess enforces the gate on the server side.
//
// Requests without a session get 401, requests without access get 402.
// Browser navigations (GET accepting text/html) are redirected with 303
// instead: to the login page with next=<path>, or to the paywall page.
// A failing Reader yields 500; it never grants access.
func RequireAccess(r Reader, userID UserIDFunc, opts ...AccessOption) func(http.Handler) http.Handler {
	if r == nil {
		panic("entitlement: reader is required")
	}
	if userID == nil {
		panic("entitlement: user id extractor is required")
	}
	cfg := &accessConfig{gate: NewGate(), now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			d, _, err := Evaluate(req.Context(), r, cfg.gate, cfg.now(), userID(req), req.URL.RequestURI())
			if err != nil {
				cfg.logger.ErrorContext(req.Context(), "entitlement lookup failed",
					logger.Component("entitlement"),
					logger.Error(err),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "entitlement unavailable"})
				return
			}
			if cfg.hook != nil {
				cfg.hook(req, d)
			}

			switch d.State {
			case StateOK:
				next.ServeHTTP(w, req)
			case StateNoSession:
				if wantsHTML(req) {
					http.Redirect(w, req, withNext(d.Redirect, d.ReturnTo), http.StatusSeeOther)
					return
				}
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			default:
				if wantsHTML(req) {
					http.Redirect(w, req, d.Redirect, http.StatusSeeOther)
					return
				}
				writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "subscription required"})
			}
		})
	}
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

func withNext(target, next string) string {
	if next == "" {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "next=" + url.QueryEscape(next)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
