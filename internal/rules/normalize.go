package rules

import (
	"strings"
)

// NormalizeText case-folds and collapses internal whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeRUT strips separators from a Chilean RUT/tax id and upper-cases
// the check digit, so "12.345.678-k" and "12345678K" compare equal.
func NormalizeRUT(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '-', ' ', '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// NormalizeValue trims decorative characters certificates often carry around
// literal sections ("-- NO REGISTRA --") and collapses whitespace, keeping
// the comparison itself case-insensitive elsewhere.
func NormalizeValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "-–—*· \t")
	return strings.Join(strings.Fields(s), " ")
}
