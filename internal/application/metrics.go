package application

import (
	"time"

	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Metrics receives business outcomes from the services.
type Metrics interface {
	RateFetch(d time.Duration, err error)
	QuoteIssued(c domain.Currency)
	TransferSettled(c domain.Currency, usd decimal.Decimal)
	SettlementRejected(reason string)
}

type NoopMetrics struct{}

func (NoopMetrics) RateFetch(time.Duration, error)                   {}
func (NoopMetrics) QuoteIssued(domain.Currency)                      {}
func (NoopMetrics) TransferSettled(domain.Currency, decimal.Decimal) {}
func (NoopMetrics) SettlementRejected(string)                        {}
