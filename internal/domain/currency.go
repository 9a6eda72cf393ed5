package domain

import "fmt"

type Currency string

const (
	USD Currency = "USD"
	JPY Currency = "JPY"
)

// SupportedCurrency lists the target currencies a quote can be issued for.
var SupportedCurrency = map[Currency]bool{
	USD: true,
	JPY: true,
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !SupportedCurrency[c] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s)
	}
	return c, nil
}

// FractionDigits is the number of minor-unit digits kept when rounding a target amount.
var FractionDigits = map[Currency]int32{
	USD: 2,
	JPY: 0,
}

// UserClass selects the daily transfer limit of a user.
type UserClass string

const (
	UserClassRegNo      UserClass = "REG_NO"
	UserClassBusinessNo UserClass = "BUSINESS_NO"
)
