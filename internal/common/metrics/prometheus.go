// Package metrics provides Prometheus metric collection.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics metric collector
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	paymentEventsTotal   *prometheus.CounterVec
	paymentEventDuration prometheus.Histogram
	commissionsTotal     *prometheus.CounterVec
	commissionAmount     *prometheus.CounterVec
	walletTxTotal        *prometheus.CounterVec
	withdrawalsTotal     *prometheus.CounterVec
	pendingSyncTotal     prometheus.Counter
}

var defaultMetrics *Metrics

// Init initializes the metric collector
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "agent_network"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		paymentEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_events_total",
				Help:      "Total number of processed payment-completed events",
			},
			[]string{"result"},
		),
		paymentEventDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "payment_event_duration_seconds",
				Help:      "Commission engine processing duration per payment event",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		commissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commission_transactions_total",
				Help:      "Total number of commission transactions created",
			},
			[]string{"status"},
		),
		commissionAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commission_amount_cents_total",
				Help:      "Total commission amount created, in minor currency units",
			},
			[]string{"status"},
		),
		walletTxTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wallet_transactions_total",
				Help:      "Total number of wallet ledger transactions",
			},
			[]string{"type"},
		),
		withdrawalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withdrawal_transitions_total",
				Help:      "Total number of withdrawal state transitions",
			},
			[]string{"to_status"},
		),
		pendingSyncTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pending_commissions_synced_total",
				Help:      "Total number of pending commissions posted by the sync pass",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the default collector
func Get() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = Init("")
	}
	return defaultMetrics
}

// GinMiddleware instruments HTTP requests
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the /metrics handler
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObservePaymentEvent records one processed payment event
func (m *Metrics) ObservePaymentEvent(result string, d time.Duration) {
	m.paymentEventsTotal.WithLabelValues(result).Inc()
	m.paymentEventDuration.Observe(d.Seconds())
}

// CommissionCreated records a created commission transaction
func (m *Metrics) CommissionCreated(status string, amountCents int64) {
	m.commissionsTotal.WithLabelValues(status).Inc()
	m.commissionAmount.WithLabelValues(status).Add(float64(amountCents))
}

// WalletTransaction records a ledger transaction
func (m *Metrics) WalletTransaction(txType string) {
	m.walletTxTotal.WithLabelValues(txType).Inc()
}

// WithdrawalTransition records a withdrawal state transition
func (m *Metrics) WithdrawalTransition(toStatus string) {
	m.withdrawalsTotal.WithLabelValues(toStatus).Inc()
}

// PendingCommissionsSynced records synced pending commissions
func (m *Metrics) PendingCommissionsSynced(n int) {
	m.pendingSyncTotal.Add(float64(n))
}
