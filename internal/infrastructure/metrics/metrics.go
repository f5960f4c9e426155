package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsApplied *prometheus.CounterVec
	TransactionAmount   *prometheus.HistogramVec
	Rejections          *prometheus.CounterVec
	StoreFailures       *prometheus.CounterVec
	StoreRetries        *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec

	// Loan metrics
	LoansRequested prometheus.Counter
	LoansApproved  prometheus.Counter
	LoansPaid      prometheus.Counter

	// Account metrics
	AccountsOpened prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Outbox metrics
	EventsPublished prometheus.Counter
	EventsFailed    prometheus.Counter

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		TransactionsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_transactions_applied_total",
				Help: "Total number of ledger entries applied by type",
			},
			[]string{"type"},
		),
		TransactionAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_transaction_amount",
				Help:    "Amounts of applied ledger entries",
				Buckets: []float64{100, 500, 1000, 5000, 10000, 20000, 100000},
			},
			[]string{"type"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_rejections_total",
				Help: "Total number of rejected operations by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		StoreFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_store_failures_total",
				Help: "Total number of operations failed by the store",
			},
			[]string{"operation"},
		),
		StoreRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_store_retries_total",
				Help: "Total number of units of work retried after a transient store error",
			},
			[]string{"reason"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Loan metrics
		LoansRequested: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_loans_requested_total",
			Help: "Total number of loan requests accepted",
		}),
		LoansApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_loans_approved_total",
			Help: "Total number of loans approved",
		}),
		LoansPaid: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_loans_paid_total",
			Help: "Total number of loans repaid",
		}),

		// Account metrics
		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bankledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Outbox metrics
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_events_published_total",
			Help: "Total outbox events published",
		}),
		EventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_events_failed_total",
			Help: "Total outbox events that failed to publish",
		}),

		// Cache metrics
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_cache_hits_total",
				Help: "Total cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_cache_misses_total",
				Help: "Total cache misses",
			},
			[]string{"cache"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}
