package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const centExp = -2

// FromCents converts an amount in cents to base currency units.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, centExp)
}

// ToCents converts a base-unit amount to cents, rejecting sub-cent precision.
func ToCents(amount decimal.Decimal) (int64, error) {
	scaled := amount.Shift(-centExp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, Invalid("amount %s has more than two decimal places", amount.String())
	}
	return scaled.IntPart(), nil
}

// ParseAmount parses a base-unit amount such as "19.99" into cents.
func ParseAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, Invalid("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return 0, Invalid("amount %q must not be negative", raw)
	}
	return ToCents(d)
}

// GatewayAmount scales a total held in cents to a gateway's minor units.
// A gateway reporting in 1/100 of the currency has factor 100.
func GatewayAmount(totalCents, factor int64) (int64, error) {
	if factor <= 0 {
		return 0, fmt.Errorf("minor unit factor must be positive, got %d", factor)
	}
	scaled := FromCents(totalCents).Mul(decimal.NewFromInt(factor))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("total %s is not representable with minor unit factor %d", FromCents(totalCents), factor)
	}
	return scaled.IntPart(), nil
}
