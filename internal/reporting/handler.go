package reporting

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/meridianbank/meridian-core/internal/platform/httpx"
)

// Handler exposes the reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reporting HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes mounts the reporting endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/reports/most-active-accounts", h.MostActiveAccounts)
	r.Get("/reports/dashboard", h.Dashboard)
}

// MostActiveAccounts handles GET /reports/most-active-accounts.
func (h *Handler) MostActiveAccounts(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("order")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.service.MostActiveAccounts(r.Context(), order, limit)
	if err != nil {
		h.logger.Error("most active accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, results)
}

// Dashboard handles GET /reports/dashboard, fanning the independent queries
// out in parallel.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var (
		summary Summary
		top     []ActiveAccount
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		summary, err = h.service.Summary(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = h.service.MostActiveAccounts(ctx, "desc", 5)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"summary":            summary,
		"mostActiveAccounts": top,
	})
}
