package util

import (
	"fmt"
	"regexp"
	"strconv"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,14}$`)

// ValidateSymbol checks a normalized ticker such as VFV.TO or BRK-B.
func ValidateSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

func ValidateUsername(username string) bool {
	return len(username) >= 3 && len(username) <= 30
}

// ParseID parses a positive integer id from a path or query parameter.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ParseLimit parses an optional count, returning fallback when s is empty
// and capping the result at max.
func ParseLimit(s string, fallback, max int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	if n > max {
		n = max
	}
	return n, nil
}

// ParseAmount parses an optional non-negative amount.
func ParseAmount(s string, fallback float64) (float64, error) {
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return f, nil
}
