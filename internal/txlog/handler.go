package txlog

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridianbank/meridian-core/internal/platform/httpx"
	"github.com/meridianbank/meridian-core/internal/shared"
)

// Handler exposes read-only transaction log queries. Listings are eventually
// consistent with respect to in-flight writes.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs the transaction log HTTP handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// Routes mounts the transaction log endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/transactions", h.List)
	r.Get("/transactions/{id}", h.Get)
	r.Get("/accounts/{number}/history", h.History)
}

// TransactionResponse is the wire representation of a transaction.
type TransactionResponse struct {
	ID                    string    `json:"id"`
	Type                  Type      `json:"type"`
	FromAccount           string    `json:"fromAccount,omitempty"`
	ToAccount             string    `json:"toAccount,omitempty"`
	Amount                string    `json:"amount"`
	Description           string    `json:"description,omitempty"`
	Status                Status    `json:"status"`
	OriginalTransactionID string    `json:"originalTransactionId,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
}

// ToResponse converts a transaction for the wire.
func ToResponse(t *Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                    t.ID,
		Type:                  t.Type,
		FromAccount:           t.FromAccount,
		ToAccount:             t.ToAccount,
		Amount:                t.Amount.StringFixed(2),
		Description:           t.Description,
		Status:                t.Status,
		OriginalTransactionID: t.OriginalTransactionID,
		CreatedAt:             t.CreatedAt,
	}
}

// List handles GET /transactions with account, type and date range filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := Filter{
		AccountNumber: query.Get("account"),
		Type:          Type(query.Get("type")),
	}
	if raw := query.Get("startDate"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "startDate must be RFC3339")
			return
		}
		filter.From = from
	}
	if raw := query.Get("endDate"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "endDate must be RFC3339")
			return
		}
		filter.To = to
	}

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	pagination := shared.NewPagination(page, limit, 0)

	transactions, total, err := h.repo.Find(r.Context(), filter, pagination)
	if err != nil {
		h.logger.Error("find transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		out = append(out, ToResponse(&transactions[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": shared.NewPagination(pagination.Page, pagination.PerPage, total),
	})
}

// Get handles GET /transactions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(transaction))
}

// History handles GET /accounts/{number}/history, the most recent movements
// excluding reversed deposits.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	transactions, err := h.repo.History(r.Context(), chi.URLParam(r, "number"), limit)
	if err != nil {
		h.logger.Error("account history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		out = append(out, ToResponse(&transactions[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}
