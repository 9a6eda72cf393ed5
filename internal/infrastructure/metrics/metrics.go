package metrics

import (
	"net/http"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Remittance holds the business metrics of quote and settlement flows.
type Remittance struct {
	registry *prometheus.Registry

	RateFetchDuration *prometheus.HistogramVec
	QuotesIssuedTotal *prometheus.CounterVec
	TransfersTotal    *prometheus.CounterVec
	TransfersUSDTotal *prometheus.CounterVec
	RejectedTotal     *prometheus.CounterVec
}

var _ application.Metrics = (*Remittance)(nil)

// New registers the collectors on a private registry together with the
// go and process collectors.
func New() *Remittance {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Remittance{
		registry: reg,
		RateFetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rate_fetch_duration_seconds",
				Help:    "Latency of upstream exchange rate fetches",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"result"},
		),
		QuotesIssuedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotes_issued_total",
				Help: "Quotes persisted, by target currency",
			},
			[]string{"currency"},
		),
		TransfersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfers_settled_total",
				Help: "Transfers settled, by target currency",
			},
			[]string{"currency"},
		),
		TransfersUSDTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfers_settled_usd_total",
				Help: "USD-equivalent amount settled, by target currency",
			},
			[]string{"currency"},
		),
		RejectedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_rejected_total",
				Help: "Transfer requests rejected, by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *Remittance) RateFetch(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RateFetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Remittance) QuoteIssued(c domain.Currency) {
	m.QuotesIssuedTotal.WithLabelValues(string(c)).Inc()
}

func (m *Remittance) TransferSettled(c domain.Currency, usd decimal.Decimal) {
	m.TransfersTotal.WithLabelValues(string(c)).Inc()
	m.TransfersUSDTotal.WithLabelValues(string(c)).Add(usd.InexactFloat64())
}

func (m *Remittance) SettlementRejected(reason string) {
	m.RejectedTotal.WithLabelValues(reason).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Remittance) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
