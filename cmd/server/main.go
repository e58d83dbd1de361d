package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/valpay/ledger/internal/api"
	"github.com/valpay/ledger/internal/config"
	"github.com/valpay/ledger/internal/ledger"
	"github.com/valpay/ledger/internal/payout"
	"github.com/valpay/ledger/internal/reconciliation"
	"github.com/valpay/ledger/internal/repository"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	txnRepo := repository.NewTransactionRepo(db)
	payoutRepo := repository.NewPayoutRepo(db)
	reportRepo := repository.NewReportRepo(db)

	// Create services.
	ledgerSvc := ledger.NewService(txnRepo, cfg.StoreTimeout())
	payoutSvc := payout.NewService(&payoutStore{txnRepo, payoutRepo})
	reconSvc := reconciliation.NewService(&reconStore{txnRepo, reportRepo})

	// Create router.
	router := api.NewRouter(ledgerSvc, payoutSvc, reconSvc, payoutRepo, reportRepo)

	log.Printf("Valpay Payment Ledger")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/notifications/transaction")
	log.Printf("  POST   /api/v1/notifications/payout")
	log.Printf("  POST   /api/v1/reports/end-of-day")
	log.Printf("  GET    /api/v1/transactions/{id}")
	log.Printf("  GET    /api/v1/payouts/{id}")
	log.Printf("  GET    /api/v1/reports?merchantId=...")
	log.Printf("  GET    /healthz")
	log.Printf("  GET    /metrics")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// payoutStore and reconStore bundle the repositories each service needs into
// its store interface, keeping the repos themselves single-aggregate.

type payoutStore struct {
	*repository.TransactionRepo
	*repository.PayoutRepo
}

type reconStore struct {
	*repository.TransactionRepo
	*repository.ReportRepo
}
