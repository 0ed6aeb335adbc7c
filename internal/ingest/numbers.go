package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// NumberMode selects how flight numbers are read from text.
type NumberMode int

const (
	// NumbersNative defers to the transport's own mode.
	NumbersNative NumberMode = iota
	// NumbersInteger reads the leading integer and ignores the rest, so
	// "-1.5" becomes -1. Text without leading digits is rejected.
	NumbersInteger
	// NumbersDecimal reads the whole field as a finite decimal number.
	NumbersDecimal
)

var (
	errNoDigits  = errors.New("no leading digits")
	errNotFinite = errors.New("not a finite number")
)

func (m NumberMode) String() string {
	switch m {
	case NumbersInteger:
		return "integer"
	case NumbersDecimal:
		return "decimal"
	default:
		return "native"
	}
}

// ParseNumberMode maps a config value onto a NumberMode.
func ParseNumberMode(s string) (NumberMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return NumbersNative, nil
	case "integer":
		return NumbersInteger, nil
	case "decimal":
		return NumbersDecimal, nil
	}
	return NumbersNative, errors.New("unknown numeric mode: " + s)
}

func (m NumberMode) parse(s string) (float64, error) {
	if m == NumbersInteger {
		return parseLeadingInt(s)
	}
	return parseDecimal(s)
}

// parseLeadingInt accepts optional whitespace, an optional sign and at least
// one digit; anything after the digits is ignored.
func parseLeadingInt(s string) (float64, error) {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, errNoDigits
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, err
	}
	// "-0" reads as zero.
	return v + 0, nil
}

func parseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
