package billing

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/liberta-app/liberta/pkg/billing"
	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/metrics"
	"github.com/liberta-app/liberta/pkg/ratelimiter"
	"github.com/liberta-app/liberta/pkg/session"
	svcbilling "github.com/liberta-app/liberta/svc/billing"
)

// MaxBodyBytes caps every request body accepted by this module.
const MaxBodyBytes = 1 << 20

// Bridge opens hosted checkout and portal pages.
type Bridge interface {
	Checkout(ctx context.Context, id *session.Identity, returnURL string) (*billing.Link, error)
	Portal(ctx context.Context, id *session.Identity, returnURL string) (*billing.Link, error)
}

// Reconciler applies verified webhook deliveries.
type Reconciler interface {
	Handle(ctx context.Context, payload []byte, signature string) (*svcbilling.Outcome, error)
	Provider() billing.Provider
}

// Options wires the module's collaborators. Logger, Metrics, Gate, Clock and
// Limiter are optional.
type Options struct {
	Bridge         Bridge
	Reconciler     Reconciler
	Entitlements   entitlement.Reader
	Verifier       session.Verifier
	Gate           entitlement.Gate
	Clock          func() time.Time
	AllowedOrigins []string
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	// Limiter caps checkout and portal requests per signed-in user.
	Limiter *ratelimiter.Limiter
}

// Router mounts the billing endpoints:
//
//	POST /functions/v1/create-checkout-session
//	POST /functions/v1/create-portal-session
//	POST /functions/v1/{provider}-webhook
//	GET  /api/entitlement
//
// The entitlement read answers without a session too: it reports
// no_session with the login redirect and the requested path.
//
// Every route answers OPTIONS with "ok" and the CORS headers.
func Router(opts Options) chi.Router {
	h := newHandler(opts)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     origins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type", "Stripe-Signature", "Paddle-Signature"},
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	r.Use(limitBody)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	auth := session.Middleware(opts.Verifier)
	links := []func(http.Handler) http.Handler{auth}
	if opts.Limiter != nil {
		links = append(links, ratelimiter.Middleware(opts.Limiter, userKey, opts.Logger))
	}

	r.Route("/functions/v1", func(r chi.Router) {
		r.Options("/*", preflight)
		r.With(links...).Post("/create-checkout-session", h.checkout)
		r.With(links...).Post("/create-portal-session", h.portal)
		if opts.Reconciler != nil {
			r.Post("/"+opts.Reconciler.Provider().Name()+"-webhook", h.webhook)
		}
	})
	r.Options("/api/entitlement", preflight)
	r.With(session.Optional(opts.Verifier)).Get("/api/entitlement", h.entitlement)

	return r
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func userKey(r *http.Request) string {
	id, ok := session.FromContext(r.Context())
	if !ok || id == nil {
		return ""
	}
	return "billing:" + id.ID.String()
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
