// Package decimalmath converts and formats token amounts without binary floating point.
//
// Base units are integer strings as they appear on chain. Display units are the
// human scaled value after applying the token's decimals exponent.
package decimalmath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidNumber = errors.New("invalid number")

var hundred = decimal.NewFromInt(100)

// Parse parses a decimal string. Empty, non-numeric and NaN inputs fail with ErrInvalidNumber.
func Parse(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "nan") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	return d, nil
}

// ToBaseUnits scales a display amount by 10^decimals. Fractional digits beyond
// the exponent are dropped.
func ToBaseUnits(display string, decimals int32) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidNumber, decimals)
	}
	d, err := Parse(display)
	if err != nil {
		return "", err
	}

	// Fixed notation so "1e-3" style inputs split the same way as "0.001".
	s := d.String()
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	if int32(len(fracPart)) > decimals {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", int(decimals)-len(fracPart))

	digits := strings.TrimLeft(intPart+fracPart, "0")
	if digits == "" {
		return "0", nil
	}
	if negative {
		return "-" + digits, nil
	}
	return digits, nil
}

// ToDisplayUnits divides a base amount by 10^decimals, flooring to decimals fractional digits.
func ToDisplayUnits(base string, decimals int32) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidNumber, decimals)
	}
	d, err := Parse(base)
	if err != nil {
		return "", err
	}
	return Truncate(d.Shift(-decimals), decimals).String(), nil
}

// Truncate rounds toward negative infinity at n fractional digits.
func Truncate(v decimal.Decimal, n int32) decimal.Decimal {
	return v.RoundFloor(n)
}

// Format truncates value to n fractional digits. Empty input yields an empty
// string; a malformed non-empty input yields ErrInvalidNumber.
func Format(value string, n int32) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	d, err := Parse(value)
	if err != nil {
		return "", err
	}
	return Truncate(d, n).StringFixed(n), nil
}

// FormatUnits renders a base amount in display units with n fractional digits.
func FormatUnits(base string, decimals, n int32) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", nil
	}
	display, err := ToDisplayUnits(base, decimals)
	if err != nil {
		return "", err
	}
	return Format(display, n)
}

// Percentage returns part*100/whole. A zero whole yields zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}
