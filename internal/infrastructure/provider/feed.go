package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remittance-service/internal/application"
	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/httpx"

	"github.com/shopspring/decimal"
)

const (
	defaultFetchTimeout     = 3 * time.Second
	defaultMaxDecimalDigits = 12
)

// FeedRateSource reads KRW-per-unit rates from a forex feed returning
// [{currencyCode, basePrice, currencyUnit}].
type FeedRateSource struct {
	URL              string
	Timeout          time.Duration
	MaxDecimalDigits int32
	// Required lists currencies that must be present. Defaults to USD and JPY.
	Required []domain.Currency
	Client   *httpx.Client
}

var _ application.RateSource = (*FeedRateSource)(nil)

type feedEntry struct {
	CurrencyCode string          `json:"currencyCode"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	CurrencyUnit decimal.Decimal `json:"currencyUnit"`
}

func (p *FeedRateSource) FetchRates(ctx context.Context) (domain.Rates, error) {
	if p.URL == "" {
		return nil, fmt.Errorf("%w: feed url not configured", application.ErrUpstream)
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	digits := p.MaxDecimalDigits
	if digits <= 0 {
		digits = defaultMaxDecimalDigits
	}
	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var entries []feedEntry
	if err := client.GetJSON(ctx, p.URL, &entries); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: feed timed out after %s", application.ErrUpstream, timeout)
		}
		return nil, fmt.Errorf("%w: feed: %w", application.ErrUpstream, err)
	}

	rates := make(domain.Rates, len(entries))
	for _, e := range entries {
		if !e.CurrencyUnit.IsPositive() {
			continue
		}
		rates[domain.Currency(e.CurrencyCode)] = e.BasePrice.DivRound(e.CurrencyUnit, digits)
	}

	required := p.Required
	if len(required) == 0 {
		required = []domain.Currency{domain.USD, domain.JPY}
	}
	out := make(domain.Rates, len(required))
	for _, c := range required {
		r, ok := rates[c]
		if !ok {
			return nil, fmt.Errorf("%w: no usable rate for %s", application.ErrUpstream, c)
		}
		if !r.IsPositive() {
			return nil, fmt.Errorf("%w: non-positive rate %s for %s", application.ErrUpstream, r, c)
		}
		out[c] = r
	}
	return out, nil
}
