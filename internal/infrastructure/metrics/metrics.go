package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCreated  prometheus.Counter
	TransfersExecuted prometheus.Counter
	TransfersRejected prometheus.Counter
	TransferDuration  prometheus.Histogram
	TransferAmount    prometheus.Histogram
	TransferErrors    *prometheus.CounterVec

	// Budget line metrics
	LinesCreated   prometheus.Counter
	LineAvailable  *prometheus.GaugeVec
	LineOperations *prometheus.CounterVec

	// Reservation metrics
	ReservationsCreated  prometheus.Counter
	ReservationsReleased prometheus.Counter
	ReservationsRejected prometheus.Counter
	ReservationDuration  prometheus.Histogram

	// Spending chain metrics
	SpendingRecorded *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationRuns  *prometheus.CounterVec
	IntegrityViolations prometheus.Counter
	HistoryRowsRecorded *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transfer metrics
		TransfersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_transfers_created_total",
			Help: "Total number of credit transfers created",
		}),
		TransfersExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_transfers_executed_total",
			Help: "Total number of credit transfers executed",
		}),
		TransfersRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_transfers_rejected_total",
			Help: "Total number of credit transfers rejected",
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "budgetledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "budgetledger_transfer_amount",
			Help:    "Executed transfer amounts",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000, 100000000},
		}),
		TransferErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),

		// Budget line metrics
		LinesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_lines_created_total",
			Help: "Total number of budget lines created",
		}),
		LineAvailable: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "budgetledger_line_available",
				Help: "Current net available amount per line",
			},
			[]string{"line_code", "exercise"},
		),
		LineOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_line_operations_total",
				Help: "Total budget line operations by type",
			},
			[]string{"operation"},
		),

		// Reservation metrics
		ReservationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_reservations_created_total",
			Help: "Total number of reservations created",
		}),
		ReservationsReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_reservations_released_total",
			Help: "Total number of reservations released",
		}),
		ReservationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_reservations_rejected_total",
			Help: "Total number of reservations rejected for insufficient funds",
		}),
		ReservationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "budgetledger_reservation_duration_seconds",
			Help:    "Duration of reservation operations",
			Buckets: prometheus.DefBuckets,
		}),

		// Spending chain metrics
		SpendingRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_spending_recorded_total",
				Help: "Total spending chain movements by type",
			},
			[]string{"movement_type"},
		),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budgetledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budgetledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "budgetledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budgetledger_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Reconciliation metrics
		ReconciliationRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_reconciliation_runs_total",
				Help: "Total reconciliation runs by result",
			},
			[]string{"result"},
		),
		IntegrityViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "budgetledger_integrity_violations_total",
			Help: "Total integrity violations detected by reconciliation",
		}),
		HistoryRowsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetledger_history_rows_total",
				Help: "Total budget history rows recorded by event type",
			},
			[]string{"event_type"},
		),
	}
}
