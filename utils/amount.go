package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches amounts in the canonical receipt form: one or more
// digits, a point, 2-3 decimals, optional space, the DT currency suffix.
var amountPattern = regexp.MustCompile(`\b\d+\.\d{2,3}\s?DT\b`)

// knownStampAmounts is the closed set of fiscal stamp values we recognize.
// Real stamps can take other values; this set covers what appears on retail
// receipts in practice and is a deliberate simplification.
var knownStampAmounts = map[string]bool{
	"0.100": true,
	"0.200": true,
	"0.300": true,
	"0.400": true,
	"0.500": true,
}

// ParseAmount parses an amount string like "2.100 DT" or "12,50" into a
// float. An error means "no usable amount"; callers treat it as absence,
// never as a fault to propagate.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, "DT", ""))
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q: %w", s, err)
	}
	return v, nil
}

// FormatAmount renders a value in the canonical form with exactly three
// decimals, e.g. 2.1 -> "2.100 DT".
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.3f DT", v)
}

// LooksLikeFiscalStamp reports whether an amount string is a plausible
// fiscal stamp value (0.100 to 0.500 DT).
func LooksLikeFiscalStamp(s string) bool {
	v, err := ParseAmount(s)
	if err != nil {
		return false
	}
	return knownStampAmounts[fmt.Sprintf("%.3f", v)]
}

// ExtractAllAmounts returns every amount-like substring in text, in order of
// occurrence, duplicates retained.
func ExtractAllAmounts(text string) []string {
	return amountPattern.FindAllString(text, -1)
}
