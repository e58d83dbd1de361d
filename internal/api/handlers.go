package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/valpay/ledger/internal/domain"
	"github.com/valpay/ledger/internal/ledger"
	"github.com/valpay/ledger/internal/metrics"
	"github.com/valpay/ledger/internal/payout"
	"github.com/valpay/ledger/internal/reconciliation"
	"github.com/valpay/ledger/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	ledgerSvc  *ledger.Service
	payoutSvc  *payout.Service
	reconSvc   *reconciliation.Service
	payoutRepo *repository.PayoutRepo
	reportRepo *repository.ReportRepo
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the core error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var mismatchErr *domain.MismatchError

	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &mismatchErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    mismatchErr.Error(),
			"type":     mismatchErr.Type,
			"expected": mismatchErr.Expected,
			"actual":   mismatchErr.Actual,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func failureClass(err error) string {
	var validationErr *domain.ValidationError
	var mismatchErr *domain.MismatchError
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "not_found"
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &mismatchErr):
		return "mismatch"
	case domain.IsStoreError(err):
		return "store"
	default:
		return "internal"
	}
}

func observe(kind string, start time.Time) {
	metrics.ProcessingDuration.WithLabelValues(kind).
		Observe(float64(time.Since(start).Milliseconds()))
}

// --- ReceiveTransactionNotification ---

func (h *Handlers) ReceiveTransactionNotification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer observe("transaction", start)
	metrics.NotificationsReceived.WithLabelValues("transaction").Inc()

	var n domain.TransactionNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		metrics.NotificationsFailed.WithLabelValues("transaction", "decode").Inc()
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	txn, err := h.ledgerSvc.ApplyNotification(r.Context(), n)
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues("transaction", failureClass(err)).Inc()
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// --- ReceivePayoutNotification ---

func (h *Handlers) ReceivePayoutNotification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer observe("payout", start)
	metrics.NotificationsReceived.WithLabelValues("payout").Inc()

	var n domain.PayoutNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		metrics.NotificationsFailed.WithLabelValues("payout", "decode").Inc()
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	p, err := h.payoutSvc.Process(r.Context(), n)
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues("payout", failureClass(err)).Inc()
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// --- ReceiveEndOfDayReport ---

func (h *Handlers) ReceiveEndOfDayReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer observe("report", start)
	metrics.NotificationsReceived.WithLabelValues("report").Inc()

	var report domain.EndOfDayReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		metrics.NotificationsFailed.WithLabelValues("report", "decode").Inc()
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	rpt, err := h.reconSvc.Reconcile(r.Context(), report)
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues("report", failureClass(err)).Inc()
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rpt)
}

// --- GetTransaction ---

func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	txn, err := h.ledgerSvc.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// --- GetPayout ---

func (h *Handlers) GetPayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	p, err := h.payoutRepo.GetPayout(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "payout not found")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// --- ListReports ---

func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	merchantID := r.URL.Query().Get("merchantId")
	if merchantID == "" {
		writeError(w, http.StatusBadRequest, "merchantId is required")
		return
	}

	reports, err := h.reportRepo.ListByMerchant(r.Context(), merchantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"merchantId": merchantID,
		"reports":    reports,
		"total":      len(reports),
	})
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
