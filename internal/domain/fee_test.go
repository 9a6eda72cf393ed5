package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testSchedule() FeeSchedule {
	return FeeSchedule{
		USDUnder100: FeeTier{Percent: decimal.RequireFromString("0.2"), Fixed: decimal.NewFromInt(1000)},
		USDOver100:  FeeTier{Percent: decimal.RequireFromString("0.1"), Fixed: decimal.NewFromInt(3000)},
		JPY:         FeeTier{Percent: decimal.RequireFromString("0.5"), Fixed: decimal.NewFromInt(3000)},
	}
}

func TestFeeSchedule_USDThresholdIsInclusive(t *testing.T) {
	s := testSchedule()

	under, err := s.Calculate(1_000_000, USD)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(3000).Equal(under), "got %s", under)

	over, err := s.Calculate(1_000_001, USD)
	require.NoError(t, err)
	// 1_000_001 * 0.1 / 100 + 3000
	require.True(t, decimal.RequireFromString("4000.001").Equal(over), "got %s", over)
}

func TestFeeSchedule_JPY(t *testing.T) {
	fee, err := testSchedule().Calculate(1000, JPY)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(3005).Equal(fee), "got %s", fee)
}

func TestFeeSchedule_KeepsFractionalFee(t *testing.T) {
	fee, err := testSchedule().Calculate(1234, USD)
	require.NoError(t, err)
	require.Equal(t, "1002.468", fee.String())
}

func TestFeeSchedule_UnsupportedCurrency(t *testing.T) {
	_, err := testSchedule().Calculate(1000, Currency("EUR"))
	require.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("JPY")
	require.NoError(t, err)
	require.Equal(t, JPY, c)

	_, err = ParseCurrency("usd")
	require.ErrorIs(t, err, ErrUnsupportedCurrency)
}
