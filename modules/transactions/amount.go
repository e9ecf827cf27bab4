package transactions

import (
	"math"
	"strconv"
	"strings"
)

// maxAmountCents keeps amounts well inside float64's exact integer range.
const maxAmountCents = 100_000_000_000

// ParseAmount converts a user-typed decimal ("12,50", "12.5", "3") into
// cents, rounding half away from zero. Only the first comma is treated as
// the decimal separator, so "1.234,56" is rejected.
func ParseAmount(raw string) (int64, error) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	cents := math.Round(f * 100)
	if cents > maxAmountCents || cents < -maxAmountCents {
		return 0, ErrInvalidAmount
	}
	return int64(cents), nil
}

// Signed applies the sign convention for t.
func Signed(cents int64, t Type) int64 {
	if t == TypeExpense {
		return -cents
	}
	return cents
}
