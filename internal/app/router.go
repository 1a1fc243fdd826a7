package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/billing/invoices"
	"github.com/meridian-erp/meridian-erp/internal/billing/receivables"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	PricingHandler     *pricing.Handler
	OrdersHandler      *orders.Handler
	InvoicesHandler    *invoices.Handler
	ReceivablesHandler *receivables.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
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

	r.Route("/api/v1", func(r chi.Router) {
		if params.PricingHandler != nil {
			r.Route("/pricing", params.PricingHandler.MountRoutes)
		}
		if params.OrdersHandler != nil {
			r.Route("/sales", params.OrdersHandler.MountRoutes)
		}
		if params.InvoicesHandler != nil {
			r.Route("/billing", params.InvoicesHandler.MountRoutes)
		}
		if params.ReceivablesHandler != nil {
			r.Route("/receivables", params.ReceivablesHandler.MountRoutes)
		}
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminOnly(params.Config, params.Logger))
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
		if params.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
		}
	})

	return r
}
