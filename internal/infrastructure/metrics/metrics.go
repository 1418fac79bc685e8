package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Expense metrics
	ExpensesCreated prometheus.Counter
	ExpensesUpdated prometheus.Counter
	ExpensesDeleted prometheus.Counter
	ExpenseAmount   prometheus.Histogram

	// Settlement metrics
	SettlementsCreated prometheus.Counter
	SharesSettled      prometheus.Counter
	SettlementAmount   prometheus.Histogram

	// Recalculation metrics
	Recalculations        prometheus.Counter
	RecalculationErrors   *prometheus.CounterVec
	RecalculationDuration prometheus.Histogram
	BalanceRows           prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Expense metrics
		ExpensesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_expenses_created_total",
			Help: "Total number of expenses created",
		}),
		ExpensesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_expenses_updated_total",
			Help: "Total number of expenses updated",
		}),
		ExpensesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_expenses_deleted_total",
			Help: "Total number of expenses deleted",
		}),
		ExpenseAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_expense_amount",
			Help:    "Expense amounts in currency units",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),

		// Settlement metrics
		SettlementsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_settlements_created_total",
			Help: "Total number of settlements recorded",
		}),
		SharesSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_shares_settled_total",
			Help: "Total number of expense shares marked settled",
		}),
		SettlementAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_settlement_amount",
			Help:    "Settlement amounts in currency units",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),

		// Recalculation metrics
		Recalculations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_recalculations_total",
			Help: "Total number of balance recalculations",
		}),
		RecalculationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_recalculation_errors_total",
				Help: "Total recalculation failures by type",
			},
			[]string{"error_type"},
		),
		RecalculationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_recalculation_duration_seconds",
			Help:    "Duration of balance recalculations",
			Buckets: prometheus.DefBuckets,
		}),
		BalanceRows: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_balance_rows",
			Help:    "Number of balance rows a recalculation produced",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "splitledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "splitledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "splitledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Cache metrics
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_cache_hits_total",
			Help: "Total balance cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitledger_cache_misses_total",
			Help: "Total balance cache misses",
		}),

		// Authentication metrics
		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
