// Package compat scores how interchangeable two free-text disc categories are.
package compat

import (
	"strings"
	"unicode"
)

const (
	// Exact is returned for labels that normalize to the same string.
	Exact = 1.0
	// CrossApproachMidrange is returned when one label mentions approach and
	// the other midrange but no family matched.
	CrossApproachMidrange = 0.6
	// None is returned when nothing relates the labels.
	None = 0.0
)

// family is a group of related category tokens with the score awarded when
// both labels belong to it.
type family struct {
	name   string
	tokens []string
	score  float64
}

// Families are checked in order; the first that contains both labels wins.
var families = []family{
	{name: "drivers", tokens: []string{"distancedriver", "fairwaydriver", "driver"}, score: 0.7},
	{name: "midrange", tokens: []string{"midrange", "mid", "approach"}, score: 0.8},
	{name: "putters", tokens: []string{"putter", "putting", "approach"}, score: 0.8},
}

// Normalize lowercases a label and removes all whitespace.
func Normalize(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, label)
}

// Compatibility returns a score in [0,1]. It is pure and symmetric, and an
// identical pair of labels always scores Exact.
func Compatibility(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return Exact
	}

	for _, f := range families {
		if f.contains(na) && f.contains(nb) {
			return f.score
		}
	}

	if crossed(na, nb) || crossed(nb, na) {
		return CrossApproachMidrange
	}
	return None
}

// Family returns the name of the first family label belongs to, or "".
func Family(label string) string {
	n := Normalize(label)
	for _, f := range families {
		if f.contains(n) {
			return f.name
		}
	}
	return ""
}

// contains reports whether label and any token are substrings of one another.
func (f family) contains(label string) bool {
	for _, t := range f.tokens {
		if strings.Contains(label, t) || strings.Contains(t, label) {
			return true
		}
	}
	return false
}

func crossed(a, b string) bool {
	return strings.Contains(a, "approach") && strings.Contains(b, "midrange")
}
