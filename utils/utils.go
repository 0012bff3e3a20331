package utils

import (
	"math"
	"strings"
	"unicode"
)

func Clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

// Sign returns 1 for positive values and -1 otherwise, zero included.
func Sign(x float64) float64 {
	if x > 0 {
		return 1
	}
	return -1
}

// Approach moves value toward zero by step without crossing it.
func Approach(value, step float64) float64 {
	if value > 0 {
		return math.Max(0, value-step)
	}
	if value < 0 {
		return math.Min(0, value+step)
	}
	return 0
}

// StripWhitespace removes every whitespace rune from s.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func ContainsWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// RectsOverlap reports whether two axis-aligned rectangles touch or overlap.
func RectsOverlap(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax <= bx+bw &&
		ax+aw >= bx &&
		ay <= by+bh &&
		ay+ah >= by
}
