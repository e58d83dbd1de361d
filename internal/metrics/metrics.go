package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valpay_notifications_received_total",
		Help: "Total inbound notifications, labelled by kind (transaction, payout, report).",
	}, []string{"kind"})

	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valpay_notifications_failed_total",
		Help: "Total notifications rejected, labelled by kind and failure class.",
	}, []string{"kind", "reason"})

	MutationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valpay_ledger_mutations_applied_total",
		Help: "Total mutations appended to the ledger, labelled by transaction type.",
	}, []string{"transaction_type"})

	PayoutsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valpay_payouts_created_total",
		Help: "Total payout records persisted.",
	})

	ReconciliationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valpay_reconciliation_runs_total",
		Help: "Total reconciliation runs, labelled by outcome (accepted, mismatch, error).",
	}, []string{"outcome"})

	ReconciliationMismatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valpay_reconciliation_mismatches_total",
		Help: "Total reconciliation mismatches, labelled by transaction type.",
	}, []string{"transaction_type"})

	ProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valpay_notification_processing_duration_ms",
		Help:    "Per-notification processing latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"kind"})
)
