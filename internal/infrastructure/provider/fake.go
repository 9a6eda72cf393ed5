package provider

import (
	"context"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
)

var _ application.RateSource = (*Fake)(nil)

// Fake serves fixed rates for local runs.
type Fake struct {
	rates domain.Rates
}

func NewFake(rates domain.Rates) *Fake { return &Fake{rates: rates} }

// DefaultFake returns roughly current KRW rates for USD and JPY.
func DefaultFake() *Fake {
	return NewFake(domain.Rates{
		domain.USD: decimal.RequireFromString("1380.5"),
		domain.JPY: decimal.RequireFromString("9.1234"),
	})
}

func (f *Fake) FetchRates(context.Context) (domain.Rates, error) {
	out := make(domain.Rates, len(f.rates))
	for c, r := range f.rates {
		out[c] = r
	}
	return out, nil
}
