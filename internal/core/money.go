// Package core provides the transaction domain: types, form validation,
// amount handling and the balance summary.
//
// Amounts are kept as decimal strings on the wire and parsed with
// shopspring/decimal for arithmetic, so sums never go through float64.
package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errNotPositive = errors.New("amount must be greater than zero")
	errOutOfRange  = errors.New("amount is not a finite number")
)

// Amounts must fit a float64: at most 309 integer digits and no smaller
// than the least positive subnormal (about 4.9e-324).
const (
	maxIntegerDigits = 309
	minMagnitude     = -323
)

var maxAmount = decimal.NewFromFloat(math.MaxFloat64)

// ParseAmount converts a user-entered amount to a decimal.
//
// Surrounding whitespace is ignored and scientific notation is accepted.
// The value must be strictly greater than zero.
//
// Examples:
//
//	ParseAmount("75.5")  -> 75.5, nil
//	ParseAmount("0.01")  -> 0.01, nil
//	ParseAmount("0")     -> error
//	ParseAmount("-5")    -> error
//	ParseAmount("1e400") -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, errNotPositive
	}
	if !inFloatRange(d) {
		return decimal.Zero, errOutOfRange
	}
	return d, nil
}

// inFloatRange reports whether the magnitude of d fits a float64. Digits and
// exponent are checked before any comparison, which would rescale a huge
// exponent. A zero with an extreme exponent is rejected for the same reason.
func inFloatRange(d decimal.Decimal) bool {
	magnitude := int64(d.NumDigits()) + int64(d.Exponent())
	if magnitude > maxIntegerDigits || magnitude < minMagnitude {
		return false
	}
	return !d.Abs().GreaterThan(maxAmount)
}

// FormatAmount renders d with exactly two decimals, rounding half away from zero.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatCurrency renders d as a dollar string, e.g. "$850.00" or "$-12.00".
func FormatCurrency(d decimal.Decimal) string {
	return "$" + FormatAmount(d)
}
