// utils/normalize.go
package utils

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeID trims surrounding whitespace from a location identifier.
// An empty result is never a valid key.
func NormalizeID(raw string) string {
	return strings.TrimSpace(raw)
}

// NormalizeNumberFr parses a number written with a comma as decimal separator
// ("45,18" -> 45.18). Only the first comma is replaced. The bool is false when
// the input is blank or does not convert to a finite number.
func NormalizeNumberFr(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
