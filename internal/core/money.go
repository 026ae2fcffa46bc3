// Package core provides money parsing and handling utilities.
//
// Engine arithmetic runs in float64 currency units; values crossing the
// engine boundary are rounded to cents with shopspring/decimal.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const maxSafeUnits = (1<<63 - 1) / 100

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.GreaterThan(decimal.NewFromInt(maxSafeUnits)) {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FromUnits converts a currency amount (e.g. 12.5) to Money, rounding to cents.
func FromUnits(v float64) Money {
	return Money{Cents: decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()}
}

// Units returns the amount in currency units for engine arithmetic.
func (m Money) Units() float64 {
	return decimal.New(m.Cents, -2).InexactFloat64()
}

func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// Round2 rounds a currency amount to two decimals, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
