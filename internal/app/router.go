package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridianbank/meridian-core/internal/engine"
	"github.com/meridianbank/meridian-core/internal/ledger"
	"github.com/meridianbank/meridian-core/internal/observability"
	"github.com/meridianbank/meridian-core/internal/reporting"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	EngineHandler    *engine.Handler
	AccountsHandler  *ledger.Handler
	TxLogHandler     *txlog.Handler
	ReportingHandler *reporting.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.AccountsHandler != nil {
			params.AccountsHandler.Routes(api)
		}
		if params.TxLogHandler != nil {
			params.TxLogHandler.Routes(api)
		}
		if params.EngineHandler != nil {
			params.EngineHandler.Routes(api)
		}
		if params.ReportingHandler != nil {
			params.ReportingHandler.Routes(api)
		}
	})

	return r
}
