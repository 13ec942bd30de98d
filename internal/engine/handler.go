package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridianbank/meridian-core/internal/platform/httpx"
	"github.com/meridianbank/meridian-core/internal/shared"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

// Handler exposes the funds movement operations over HTTP.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
	validator   *validator.Validate
}

// NewHandler constructs the engine HTTP handler. The idempotency store is
// optional; without it the Idempotency-Key header is ignored.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency, validator: validator.New()}
}

// Routes mounts the funds movement endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/transactions/deposit", h.Deposit)
	r.Post("/transactions/transfer", h.Transfer)
	r.Post("/transactions/deposits/{id}/reverse", h.ReverseDeposit)
}

type depositRequest struct {
	ToAccount   string `json:"toAccount" validate:"required,max=20"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=200"`
}

type transferRequest struct {
	FromAccount string `json:"fromAccount" validate:"required,max=20"`
	ToAccount   string `json:"toAccount" validate:"required,max=20"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=200"`
}

// Deposit handles POST /transactions/deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.claimIdempotency(w, r, "deposit") {
		return
	}

	result, err := h.service.Deposit(r.Context(), DepositInput{
		ToAccount:   req.ToAccount,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		h.releaseIdempotency(r, "deposit")
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"transaction":      txlog.ToResponse(result.Transaction),
		"toAccountBalance": result.NewBalance.StringFixed(2),
		"revertibleUntil":  result.RevertibleUntil.Format(time.RFC3339),
	})
}

// Transfer handles POST /transactions/transfer.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.claimIdempotency(w, r, "transfer") {
		return
	}

	result, err := h.service.Transfer(r.Context(), TransferInput{
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		h.releaseIdempotency(r, "transfer")
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"transaction":        txlog.ToResponse(result.Transaction),
		"fromAccountBalance": result.FromBalance.StringFixed(2),
		"toAccountBalance":   result.ToBalance.StringFixed(2),
	})
}

// ReverseDeposit handles POST /transactions/deposits/{id}/reverse.
func (h *Handler) ReverseDeposit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ReverseDeposit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"reversalTransaction": txlog.ToResponse(result.Reversal),
		"accountBalance":      result.NewBalance.StringFixed(2),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

// claimIdempotency reserves the request's Idempotency-Key. A duplicate key is
// answered with 409 before the engine runs.
func (h *Handler) claimIdempotency(w http.ResponseWriter, r *http.Request, module string) bool {
	key := r.Header.Get("Idempotency-Key")
	if key == "" || h.idempotency == nil {
		return true
	}
	if err := h.idempotency.Claim(r.Context(), key, module); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate Request", "this idempotency key was already processed")
			return false
		}
		h.logger.Error("claim idempotency key", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return false
	}
	return true
}

// releaseIdempotency frees the key after a failed operation so the caller can
// retry with the same key.
func (h *Handler) releaseIdempotency(r *http.Request, module string) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" || h.idempotency == nil {
		return
	}
	if err := h.idempotency.Release(r.Context(), key, module); err != nil {
		h.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount is not a number", shared.ErrValidation)
	}
	return amount, nil
}
