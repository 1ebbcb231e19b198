// Package core provides the pure domain logic for the tax ledger:
// fixed-point money arithmetic, the Australian financial-year calendar,
// and recurring schedule date math.
//
// All monetary values are signed 64-bit integers of whole cents. No function
// in this package goes through a floating-point intermediate; a single float
// rounding step can break the subtotal+GST=total invariant.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// AddCents returns the integer sum of two cent amounts.
func AddCents(a, b int64) int64 {
	return a + b
}

// GSTInclusive returns the GST-inclusive total for an ex-GST subtotal.
// The 10% GST component is rounded half up to the nearest cent.
func GSTInclusive(subtotalCents int64) int64 {
	return subtotalCents + divRoundHalfUp(subtotalCents, 10)
}

// GSTFromInclusiveTotal extracts the GST component from a GST-inclusive
// total, rounded half up. For a 10% GST-inclusive total T the GST component
// is exactly T/11; this function is the sole source of truth for
// auto-calculated GST on domestic-provider expenses.
func GSTFromInclusiveTotal(totalCents int64) int64 {
	return divRoundHalfUp(totalCents, 11)
}

// ExGSTFromInclusiveTotal returns the ex-GST subtotal of a GST-inclusive
// total. It is derived by subtracting the already-rounded GST figure rather
// than rounded independently, so subtotal+GST=total holds exactly.
func ExGSTFromInclusiveTotal(totalCents int64) int64 {
	return totalCents - GSTFromInclusiveTotal(totalCents)
}

// ApplyPercent returns floor(amount × percent / 100). Flooring (never
// half-up) keeps apportioned claims tax-conservative. Returns an error when
// percent is outside [0,100].
func ApplyPercent(amountCents, percent int64) (int64, error) {
	if percent < 0 || percent > 100 {
		return 0, fmt.Errorf("%w: %d", ErrPercentOutOfRange, percent)
	}
	return amountCents * percent / 100, nil
}

// ClaimableGST returns the business-use portion of a GST amount.
func ClaimableGST(gstCents, bizPercent int64) (int64, error) {
	return ApplyPercent(gstCents, bizPercent)
}

// divRoundHalfUp divides a non-negative n by d, rounding half up.
func divRoundHalfUp(n, d int64) int64 {
	q := n / d
	if 2*(n%d) >= d {
		q++
	}
	return q
}

// ParseDecimalToCents converts a decimal dollar string to cents with proper
// rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// performs half-up rounding on the third decimal place. The result is always
// positive cents. Returns an error for invalid formats, negative values, or
// zero amounts.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on the third
	var fracCents int64 = 0
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracCents++
				}
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FormatDollars formats cents as an AUD currency string (e.g. "$12.34").
func FormatDollars(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	dollars := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(dollars, 10) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		return "-$" + s
	}
	return "$" + s
}
