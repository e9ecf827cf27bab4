package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/liberta-app/liberta/pkg/billing"
	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/logger"
	"github.com/liberta-app/liberta/pkg/metrics"
	"github.com/liberta-app/liberta/pkg/session"
	svcbilling "github.com/liberta-app/liberta/svc/billing"
)

type handler struct {
	bridge       Bridge
	reconciler   Reconciler
	entitlements entitlement.Reader
	gate         entitlement.Gate
	now          func() time.Time
	log          *slog.Logger
	metrics      *metrics.Metrics
}

func newHandler(opts Options) *handler {
	h := &handler{
		bridge:       opts.Bridge,
		reconciler:   opts.Reconciler,
		entitlements: opts.Entitlements,
		gate:         opts.Gate,
		now:          opts.Clock,
		log:          opts.Logger,
		metrics:      opts.Metrics,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.log == nil {
		h.log = slog.New(slog.DiscardHandler)
	}
	if h.gate == (entitlement.Gate{}) {
		h.gate = entitlement.NewGate()
	}
	h.log = h.log.With(logger.Component("billing.http"))
	return h
}

type sessionRequest struct {
	ReturnURL string `json:"returnUrl"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// decodeSessionRequest reads the optional {"returnUrl"} body. An empty or
// unparsable body means "no return URL".
func decodeSessionRequest(r *http.Request) (sessionRequest, error) {
	var req sessionRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &req)
	}
	return req, nil
}

func (h *handler) checkout(w http.ResponseWriter, r *http.Request) {
	h.openLink(w, r, "checkout", h.bridge.Checkout)
}

func (h *handler) portal(w http.ResponseWriter, r *http.Request) {
	h.openLink(w, r, "portal", h.bridge.Portal)
}

type bridgeFunc func(ctx context.Context, id *session.Identity, returnURL string) (*billing.Link, error)

func (h *handler) openLink(w http.ResponseWriter, r *http.Request, op string, open bridgeFunc) {
	ctx := r.Context()
	id, _ := session.FromContext(ctx)

	req, err := decodeSessionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link, err := open(ctx, id, req.ReturnURL)
	switch {
	case errors.Is(err, svcbilling.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		h.log.WarnContext(ctx, op+" request failed", logger.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{URL: link.URL})
}

func (h *handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	provider := h.reconciler.Provider()

	status := http.StatusOK
	eventType := ""
	defer func() { h.metrics.ObserveWebhook(provider.Name(), eventType, status, time.Since(start)) }()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		status = http.StatusBadRequest
		writeError(w, status, err.Error())
		return
	}

	sig := r.Header.Get(provider.SignatureHeader())
	if sig == "" {
		status = http.StatusBadRequest
		writeError(w, status, "missing "+provider.SignatureHeader()+" header")
		return
	}

	out, err := h.reconciler.Handle(ctx, payload, sig)
	if err != nil {
		status = http.StatusBadRequest
		writeError(w, status, err.Error())
		return
	}
	eventType = out.ProviderType
	h.log.DebugContext(ctx, "webhook handled",
		logger.EventID(out.EventID), logger.EventType(out.ProviderType), slog.String("result", out.Result))
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

type entitlementResponse struct {
	TrialEndsAt        *time.Time         `json:"trial_ends_at"`
	SubscriptionStatus *string            `json:"subscription_status"`
	State              entitlement.State  `json:"state"`
	Redirect           string             `json:"redirect,omitempty"`
	ReturnTo           string             `json:"return_to,omitempty"`
	Trial              *entitlement.Trial `json:"trial"`
}

func (h *handler) entitlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	var userID *uuid.UUID
	if id, ok := session.FromContext(ctx); ok {
		userID = &id.ID
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/app"
	}

	decision, snap, err := entitlement.Evaluate(ctx, h.entitlements, h.gate, now, userID, path)
	if err != nil {
		h.log.ErrorContext(ctx, "entitlement lookup failed", logger.UserID(userID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "entitlement unavailable")
		return
	}
	h.metrics.GateDecision(string(decision.State))

	resp := entitlementResponse{
		State:    decision.State,
		Redirect: decision.Redirect,
		ReturnTo: decision.ReturnTo,
		Trial:    entitlement.TrialInfo(snap, now),
	}
	if snap != nil {
		resp.TrialEndsAt = snap.TrialEndsAt
		if snap.SubscriptionStatus != "" {
			status := snap.SubscriptionStatus
			resp.SubscriptionStatus = &status
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
