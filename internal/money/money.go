// Package money provides exact arithmetic on monetary values. Every
// operation quantizes its operands to integer cents before combining,
// so results never carry binary floating-point drift or sub-cent dust.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned by Parse for empty or non-numeric input
var ErrInvalidAmount = errors.New("invalid amount")

// cents quantizes a value to integer minor units, rounding half away from zero
func cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// fromCents converts integer minor units back to a two-place decimal
func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// Round quantizes an amount to the nearest cent
func Round(d decimal.Decimal) decimal.Decimal {
	return fromCents(cents(d))
}

// Add returns a + b with both operands quantized to cents first
func Add(a, b decimal.Decimal) decimal.Decimal {
	return fromCents(cents(a) + cents(b))
}

// Sub returns a - b with both operands quantized to cents first
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return fromCents(cents(a) - cents(b))
}

// Mul multiplies a quantized amount by a scalar and rounds the result to cents
func Mul(amount, scalar decimal.Decimal) decimal.Decimal {
	product := decimal.New(cents(amount), 0).Mul(scalar)
	return fromCents(product.Round(0).IntPart())
}

// Sum adds a list of amounts exactly, quantizing each to cents
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	var total int64
	for _, a := range amounts {
		total += cents(a)
	}
	return fromCents(total)
}

// Compare returns -1, 0 or 1 comparing the cent-quantized values of a and b
func Compare(a, b decimal.Decimal) int {
	ca, cb := cents(a), cents(b)
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	default:
		return 0
	}
}

// currencySymbols are stripped from input before numeric parsing
const currencySymbols = "$€£₽¥"

// Parse converts a user-entered amount string to a cent-quantized decimal.
// It tolerates an optional currency symbol, thousands separators (comma or
// space), a leading minus, and accounting-style parentheses for negatives.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}

	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, string(sym), "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	return Round(d), nil
}
