package application

import (
	"time"

	"remittance-service/internal/domain"

	"github.com/shopspring/decimal"
)

type QuoteSettings struct {
	Lifetime time.Duration
	Fees     domain.FeeSchedule
	// FractionDigits overrides domain.FractionDigits when set.
	FractionDigits map[domain.Currency]int32
}

func (s QuoteSettings) fractionDigits(c domain.Currency) (int32, bool) {
	src := s.FractionDigits
	if src == nil {
		src = domain.FractionDigits
	}
	d, ok := src[c]
	return d, ok
}

type SettlementSettings struct {
	// DailyLimits caps the usd total a user class may settle per calendar day.
	DailyLimits map[domain.UserClass]decimal.Decimal
	// Location defines the calendar day boundaries. Defaults to UTC.
	Location *time.Location
}

func (s SettlementSettings) dayBounds(now time.Time) (time.Time, time.Time) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
