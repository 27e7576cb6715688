// Package core provides the maintenance domain model.
//
// This file contains helpers for parsing monetary amounts typed by users
// and rendering them for documents and API responses.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
const CurrencySymbol = "₹"

// ParseAmount converts a user-entered decimal string into an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up to two decimal places. Zero is accepted because blank form
// rows are dropped later by the persistence filter; negative values are not.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).InexactFloat64(), nil
}

// FormatCurrency renders an amount as "₹1,234.50".
func FormatCurrency(amount float64) string {
	return formatWithSymbol(amount, CurrencySymbol)
}

// FormatCurrencyASCII renders an amount as "Rs. 1,234.50" for outputs
// restricted to Latin-1 fonts.
func FormatCurrencyASCII(amount float64) string {
	return formatWithSymbol(amount, "Rs. ")
}

func formatWithSymbol(amount float64, symbol string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
