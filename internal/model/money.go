package model

import (
	"fmt"
	"math"
	"strconv"
)

// ParseCents converts decimal string amounts (major units) to cents (int64).
// The catalog API returns prices in major currency units (e.g., "33.00").
// Handles edge cases: empty strings, missing decimals, large values.
// Examples: "33.00" → 3300, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// FormatCents renders a cents amount as a major-unit decimal string with
// two decimal places. Examples: 2805 → "28.05", 0 → "0.00", -150 → "-1.50"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// DiscountCents applies a percentage discount to a cents amount, rounding
// half up. All offer price math stays in integer cents to avoid float
// drift. Example: DiscountCents(3300, 15) = 2805.
func DiscountCents(cents, percent int64) int64 {
	return (cents*(100-percent) + 50) / 100
}

// DiscountedPrice computes the offer price for a catalog price string.
// "33.00" with the standard 15% discount → "28.05".
func DiscountedPrice(price string, percent int64) string {
	return FormatCents(DiscountCents(ParseCents(price), percent))
}
