package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rates maps a currency to the number of source units one unit of it costs.
type Rates map[Currency]decimal.Decimal

// Quote is a price-locked offer to convert Amount into TargetCurrency until ExpireTime.
type Quote struct {
	ID              string
	UserID          string
	Amount          int64
	TargetCurrency  Currency
	ExchangeRate    decimal.Decimal
	USDExchangeRate decimal.Decimal
	Fee             decimal.Decimal
	TargetAmount    decimal.Decimal
	USDAmount       decimal.Decimal
	ExpireTime      time.Time
	CreatedAt       time.Time
}

// Expired reports whether the quote can no longer be settled at now.
func (q Quote) Expired(now time.Time) bool {
	return now.After(q.ExpireTime)
}
