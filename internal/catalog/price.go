package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice normalizes a currency-formatted string ("S/. 4,599",
// "$1.299,90", "4599.50") into a non-negative decimal with two fraction
// digits. Unparseable input yields zero rather than an error; ingestion
// must never fail on a bad price cell.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	// Drop the currency prefix ("S/.", "$", "USD ") before deciding what
	// the separators mean; its dot must not count as a decimal point.
	if i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }); i > 0 {
		s = s[i:]
	} else if i < 0 {
		return decimal.Zero
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		// Both present: comma is a thousands separator.
		s = strings.ReplaceAll(s, ",", "")
	case hasComma:
		// Comma alone is a decimal separator only when followed by
		// exactly 1-2 digits, otherwise a thousands separator.
		idx := strings.LastIndex(s, ",")
		frac := digitsOnly(s[idx+1:])
		if len(frac) >= 1 && len(frac) <= 2 && strings.Count(s, ",") == 1 {
			s = s[:idx] + "." + s[idx+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	// Strip currency symbols and anything else that is not a digit or
	// a dot. "S/." contributes a stray dot, handled below.
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	// Keep only the last dot as the decimal point.
	if strings.Count(s, ".") > 1 {
		idx := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:idx], ".", "") + s[idx:]
	}
	s = strings.Trim(s, ".")
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
