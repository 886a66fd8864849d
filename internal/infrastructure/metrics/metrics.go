package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Payment metrics
	PaymentsRecorded   prometheus.Counter
	PaymentsReplayed   prometheus.Counter
	PreviewsComputed   prometheus.Counter
	RecordDuration     prometheus.Histogram
	PaymentAmount      prometheus.Histogram
	StaleAllocations   prometheus.Counter
	RecordErrors       *prometheus.CounterVec
	BillsSettled       prometheus.Counter
	BillsPartiallyPaid prometheus.Counter

	// Credit metrics
	CreditUsedTotal  prometheus.Counter
	CreditAddedTotal prometheus.Counter
	CreditBalance    *prometheus.GaugeVec
	CreditSeeds      prometheus.Counter

	// Import metrics
	ImportPayments prometheus.Counter
	ImportFailures prometheus.Counter

	// Consistency metrics
	ConsistencyChecks   prometheus.Counter
	ConsistencyFailures prometheus.Counter

	// Database metrics
	DBRetries prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_payments_recorded_total",
			Help: "Total number of payments recorded",
		}),
		PaymentsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_payments_replayed_total",
			Help: "Total number of Record calls answered from the idempotency store",
		}),
		PreviewsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_previews_computed_total",
			Help: "Total number of allocation previews computed",
		}),
		RecordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "duespay_record_duration_seconds",
			Help:    "Duration of payment record operations",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "duespay_payment_amount_centavos",
			Help:    "Recorded payment amounts in minor units",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),
		StaleAllocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_stale_allocations_total",
			Help: "Total number of record attempts rejected because the preview went stale",
		}),
		RecordErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duespay_record_errors_total",
				Help: "Total number of record errors by type",
			},
			[]string{"error_type"},
		),
		BillsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_bills_settled_total",
			Help: "Total number of bills fully paid by recorded payments",
		}),
		BillsPartiallyPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_bills_partially_paid_total",
			Help: "Total number of bills left partially paid by recorded payments",
		}),

		CreditUsedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_credit_used_centavos_total",
			Help: "Total credit consumed by payments, in minor units",
		}),
		CreditAddedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_credit_added_centavos_total",
			Help: "Total overpayment deposited as credit, in minor units",
		}),
		CreditBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "duespay_credit_balance_centavos",
				Help: "Current credit balance per unit, in minor units",
			},
			[]string{"unit_id"},
		),
		CreditSeeds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_credit_seeds_total",
			Help: "Total number of starting-balance entries created",
		}),

		ImportPayments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_import_payments_total",
			Help: "Total number of historical payments replayed by import",
		}),
		ImportFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_import_failures_total",
			Help: "Total number of historical payments that failed to replay",
		}),

		ConsistencyChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_consistency_checks_total",
			Help: "Total number of ledger consistency checks run",
		}),
		ConsistencyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_consistency_failures_total",
			Help: "Total number of consistency checks that found problems",
		}),

		DBRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duespay_db_retries_total",
			Help: "Total number of database operations retried after deadlock or serialization failure",
		}),
	}
}
