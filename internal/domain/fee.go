package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// USDTierThreshold is compared against the raw source amount in minor units.
// Amounts up to and including it use the USD_UNDER_100 tier.
const USDTierThreshold int64 = 1_000_000

var hundred = decimal.NewFromInt(100)

// FeeTier is a percent-of-amount plus fixed fee rule.
type FeeTier struct {
	Percent decimal.Decimal
	Fixed   decimal.Decimal
}

func (t FeeTier) Apply(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Mul(t.Percent).Div(hundred).Add(t.Fixed)
}

type FeeSchedule struct {
	USDUnder100 FeeTier
	USDOver100  FeeTier
	JPY         FeeTier
}

// Calculate returns the fee charged for converting amount into target.
func (s FeeSchedule) Calculate(amount int64, target Currency) (decimal.Decimal, error) {
	switch target {
	case USD:
		if amount <= USDTierThreshold {
			return s.USDUnder100.Apply(amount), nil
		}
		return s.USDOver100.Apply(amount), nil
	case JPY:
		return s.JPY.Apply(amount), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, target)
	}
}
