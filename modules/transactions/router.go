package transactions

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/logger"
	"github.com/liberta-app/liberta/pkg/metrics"
	"github.com/liberta-app/liberta/pkg/session"
)

const maxBodyBytes = 64 << 10

// Options wires the module. Gate, Clock, Logger and Metrics are optional.
type Options struct {
	Service      *Service
	Verifier     session.Verifier
	Entitlements entitlement.Reader
	Gate         entitlement.Gate
	Clock        func() time.Time
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Router serves GET and POST on its mount point (/api/transactions). Both
// require a session and an entitlement that passes the gate.
func Router(opts Options) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(logger.Component("transactions"))
	h := &handler{svc: opts.Service, log: log}

	access := []entitlement.AccessOption{
		entitlement.WithAccessLogger(log),
		entitlement.WithDecisionHook(func(_ *http.Request, d entitlement.Decision) {
			opts.Metrics.GateDecision(string(d.State))
		}),
	}
	if opts.Gate != (entitlement.Gate{}) {
		access = append(access, entitlement.WithAccessGate(opts.Gate))
	}
	if opts.Clock != nil {
		access = append(access, entitlement.WithAccessClock(opts.Clock))
	}

	r := chi.NewRouter()
	r.Use(session.Middleware(opts.Verifier))
	r.Use(entitlement.RequireAccess(opts.Entitlements, sessionUserID, access...))
	r.Get("/", h.list)
	r.With(limitBody).Post("/", h.create)
	return r
}

func sessionUserID(r *http.Request) *uuid.UUID {
	id, ok := session.FromContext(r.Context())
	if !ok || id == nil {
		return nil
	}
	return &id.ID
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
