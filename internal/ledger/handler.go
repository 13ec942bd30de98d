package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridianbank/meridian-core/internal/platform/httpx"
	"github.com/meridianbank/meridian-core/internal/shared"
)

// Handler exposes the account directory over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the accounts HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// Routes mounts the account endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/accounts", h.Open)
	r.Get("/accounts", h.List)
	r.Get("/accounts/{number}", h.Get)
	r.Delete("/accounts/{number}", h.Cancel)
}

type openAccountRequest struct {
	Number         string `json:"number" validate:"omitempty,max=20"`
	HolderID       string `json:"holderId" validate:"required"`
	Type           string `json:"type" validate:"omitempty,oneof=SAVINGS CHECKING FIXED_TERM PAYROLL YOUTH"`
	Currency       string `json:"currency" validate:"omitempty,oneof=GTQ USD"`
	OpeningBalance string `json:"openingBalance" validate:"omitempty"`
}

type accountResponse struct {
	Number           string     `json:"number"`
	HolderID         string     `json:"holderId"`
	Type             Type       `json:"type"`
	Currency         string     `json:"currency"`
	Status           Status     `json:"status"`
	Balance          string     `json:"balance"`
	AvailableBalance string     `json:"availableBalance"`
	LastMovement     *time.Time `json:"lastMovement,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toAccountResponse(a *Account) accountResponse {
	return accountResponse{
		Number:           a.Number,
		HolderID:         a.HolderID,
		Type:             a.Type,
		Currency:         a.Currency,
		Status:           a.Status,
		Balance:          a.Balance.StringFixed(2),
		AvailableBalance: a.AvailableBalance.StringFixed(2),
		LastMovement:     a.LastMovement,
		CreatedAt:        a.CreatedAt,
	}
}

// Open handles POST /accounts.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		if opening, err = decimal.NewFromString(req.OpeningBalance); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: opening balance is not a number", shared.ErrValidation))
			return
		}
	}

	account, err := h.service.Open(r.Context(), OpenAccountInput{
		Number:         req.Number,
		HolderID:       req.HolderID,
		Type:           Type(req.Type),
		Currency:       req.Currency,
		OpeningBalance: opening,
	})
	if err != nil {
		h.logger.Warn("open account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}

// Get handles GET /accounts/{number}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Get(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

// List handles GET /accounts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context(), r.URL.Query().Get("holder"))
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResponse(&accounts[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Cancel handles DELETE /accounts/{number}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), chi.URLParam(r, "number")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
