package transactions

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/liberta-app/liberta/pkg/logger"
	"github.com/liberta-app/liberta/pkg/session"
	"github.com/liberta-app/liberta/pkg/validator"
)

type handler struct {
	svc *Service
	log *slog.Logger
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Description *string   `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Type        Type      `json:"type"`
	Category    *string   `json:"category"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID.String(),
		Description: nullable(t.Description),
		AmountCents: t.AmountCents,
		Type:        t.Type,
		Category:    nullable(t.Category),
		Date:        t.Date.Format(DateLayout),
		CreatedAt:   t.CreatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// amountField accepts the amount as a JSON string or number.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return ErrInvalidAmount
	}
	*a = amountField(n.String())
	return nil
}

type createRequest struct {
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := session.FromContext(ctx)

	q := r.URL.Query()
	f := Filter{Type: Type(q.Get("type")), Query: q.Get("q")}
	if f.Type == "all" {
		f.Type = ""
	}
	if f.Type != "" && f.Type != TypeIncome && f.Type != TypeExpense {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": map[string][]string{"type": {"must be income or expense"}},
		})
		return
	}

	items, err := h.svc.List(ctx, id.ID, f)
	if err != nil {
		h.log.ErrorContext(ctx, "list transactions failed", logger.UserID(id.ID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load transactions"})
		return
	}

	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toResponse(t))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(out)))
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := session.FromContext(ctx)

	var req createRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, ErrInvalidAmount) {
			msg = "amount must be a string or a number"
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	tx, err := h.svc.Create(ctx, id.ID, Input{
		Description: req.Description,
		Amount:      string(req.Amount),
		Type:        strings.ToLower(req.Type),
		Category:    req.Category,
		Date:        req.Date,
	})
	if ve := validator.Extract(err); ve != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "validation failed", "fields": ve.Map()})
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx, "create transaction failed", logger.UserID(id.ID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save transaction"})
		return
	}

	h.log.InfoContext(ctx, "transaction created", logger.UserID(id.ID), slog.String("transaction_id", tx.ID.String()))
	writeJSON(w, http.StatusCreated, toResponse(tx))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
