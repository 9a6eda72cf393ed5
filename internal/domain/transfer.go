package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is the settled outcome of exactly one Quote.
type Transfer struct {
	ID              int64
	QuoteID         string
	UserID          string
	SourceAmount    int64
	Fee             decimal.Decimal
	TargetCurrency  Currency
	ExchangeRate    decimal.Decimal
	USDExchangeRate decimal.Decimal
	TargetAmount    decimal.Decimal
	USDAmount       decimal.Decimal
	RequestedAt     time.Time
}

// NewTransfer copies the monetary fields of q; nothing is recomputed.
func NewTransfer(q Quote, requestedAt time.Time) Transfer {
	return Transfer{
		QuoteID:         q.ID,
		UserID:          q.UserID,
		SourceAmount:    q.Amount,
		Fee:             q.Fee,
		TargetCurrency:  q.TargetCurrency,
		ExchangeRate:    q.ExchangeRate,
		USDExchangeRate: q.USDExchangeRate,
		TargetAmount:    q.TargetAmount,
		USDAmount:       q.USDAmount,
		RequestedAt:     requestedAt,
	}
}
