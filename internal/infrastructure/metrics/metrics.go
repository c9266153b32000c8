package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

// Metrics owns a private registry so tests and multiple servers never
// collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	invoicesCreated   *prometheus.CounterVec
	invoicesSettled   *prometheus.CounterVec
	paymentsRecorded  *prometheus.CounterVec
	paymentAmount     *prometheus.CounterVec
	paymentRejections *prometheus.CounterVec

	overdueInvoices    *prometheus.GaugeVec
	outstandingBalance *prometheus.GaugeVec
	lastScan           prometheus.Gauge
}

// New registers all collectors under namespace
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "Duration of HTTP requests in ms",
			Buckets:   []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		}, []string{"method", "path"}),
		invoicesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_created_total",
			Help:      "Invoices created",
		}, []string{"currency"}),
		invoicesSettled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_settled_total",
			Help:      "Invoices whose balance reached zero",
		}, []string{"currency"}),
		paymentsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments appended to invoice ledgers",
		}, []string{"currency"}),
		paymentAmount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_amount_total",
			Help:      "Sum of recorded payment amounts, per currency",
		}, []string{"currency"}),
		paymentRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_rejections_total",
			Help:      "Payments refused, by reason",
		}, []string{"reason"}),
		overdueInvoices: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invoice_overdue_count",
			Help:      "Unpaid, unarchived invoices past their due date",
		}, []string{"currency"}),
		outstandingBalance: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invoice_outstanding_balance",
			Help:      "Sum of balanceDue over unarchived invoices",
		}, []string{"currency"}),
		lastScan: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overdue_scan_last_run_timestamp_seconds",
			Help:      "Unix time of the last completed overdue scan",
		}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(float64(elapsed.Milliseconds()))
}

// InvoiceCreated counts a new invoice
func (m *Metrics) InvoiceCreated(currency entity.Currency) {
	m.invoicesCreated.WithLabelValues(string(currency)).Inc()
}

// InvoiceSettled counts an invoice reaching a zero balance
func (m *Metrics) InvoiceSettled(currency entity.Currency) {
	m.invoicesSettled.WithLabelValues(string(currency)).Inc()
}

// PaymentRecorded counts a payment and adds its amount
func (m *Metrics) PaymentRecorded(currency entity.Currency, amount float64) {
	m.paymentsRecorded.WithLabelValues(string(currency)).Inc()
	if amount > 0 {
		m.paymentAmount.WithLabelValues(string(currency)).Add(amount)
	}
}

// PaymentRejected counts a refused payment
func (m *Metrics) PaymentRejected(reason string) {
	m.paymentRejections.WithLabelValues(reason).Inc()
}

// CurrencySnapshot is one currency's share of an overdue scan
type CurrencySnapshot struct {
	Overdue     int
	Outstanding decimal.Decimal
}

// SetOutstanding replaces the gauges with a fresh scan result
func (m *Metrics) SetOutstanding(snapshot map[entity.Currency]CurrencySnapshot, at time.Time) {
	m.overdueInvoices.Reset()
	m.outstandingBalance.Reset()
	for currency, s := range snapshot {
		m.overdueInvoices.WithLabelValues(string(currency)).Set(float64(s.Overdue))
		m.outstandingBalance.WithLabelValues(string(currency)).Set(s.Outstanding.Round(2).InexactFloat64())
	}
	m.lastScan.Set(float64(at.Unix()))
}
