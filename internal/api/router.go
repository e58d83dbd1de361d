package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valpay/ledger/internal/ledger"
	"github.com/valpay/ledger/internal/payout"
	"github.com/valpay/ledger/internal/reconciliation"
	"github.com/valpay/ledger/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	ledgerSvc *ledger.Service,
	payoutSvc *payout.Service,
	reconSvc *reconciliation.Service,
	payoutRepo *repository.PayoutRepo,
	reportRepo *repository.ReportRepo,
) http.Handler {
	h := &Handlers{
		ledgerSvc:  ledgerSvc,
		payoutSvc:  payoutSvc,
		reconSvc:   reconSvc,
		payoutRepo: payoutRepo,
		reportRepo: reportRepo,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Ingestion.
		r.Post("/notifications/transaction", h.ReceiveTransactionNotification)
		r.Post("/notifications/payout", h.ReceivePayoutNotification)
		r.Post("/reports/end-of-day", h.ReceiveEndOfDayReport)

		// Reads.
		r.Get("/transactions/{id}", h.GetTransaction)
		r.Get("/payouts/{id}", h.GetPayout)
		r.Get("/reports", h.ListReports)
	})

	return r
}
