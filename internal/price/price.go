// Package price parses the locale-formatted price strings found in the
// product catalog into comparable numeric values. Catalog prices are scraped
// Turkish retail strings: "." as thousands separator, "," as decimal
// separator, and an optional trailing currency marker ("1.990 TL",
// "299,99 TL", "₺49,90").
package price

import (
	"strconv"
	"strings"
)

// currencyMarkers are the suffix/prefix tokens stripped before numeric parsing.
var currencyMarkers = []string{"TL", "TRY", "₺"}

// Parse converts a catalog price string to a numeric value.
// Returns ok=false for empty, absent, or unparseable input — callers treat
// that as "price unknown", not as an error.
//
//	Parse("1.990 TL")  → 1990,   true
//	Parse("299,99 TL") → 299.99, true
//	Parse("")          → 0,      false
func Parse(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	upper := strings.ToUpper(s)
	for _, m := range currencyMarkers {
		upper = strings.ReplaceAll(upper, m, "")
	}
	upper = strings.TrimSpace(upper)
	upper = strings.ReplaceAll(upper, " ", "")
	if upper == "" {
		return 0, false
	}

	// Turkish retail format: "." groups thousands, "," marks decimals.
	// "1.990,50" → "1990.50". Applied unconditionally — catalog prices are
	// never dot-decimal.
	upper = strings.ReplaceAll(upper, ".", "")
	upper = strings.ReplaceAll(upper, ",", ".")

	v, err := strconv.ParseFloat(upper, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		return 0, false
	}
	return v, true
}

// InRange reports whether the parsed value of s satisfies the optional
// [min, max] bounds. An unparseable price fails any bound check; when both
// bounds are nil every price (parseable or not) passes.
func InRange(s string, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	v, ok := Parse(s)
	if !ok {
		return false
	}
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
