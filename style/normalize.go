package style

import (
	"strconv"
	"strings"
)

// hyphenate converts a camelCase property key to the hyphen-lowercase CSS
// form: flexDirection becomes flex-direction, MozAppearance becomes
// -moz-appearance. Keys without uppercase letters are returned as is.
func hyphenate(key string) string {
	if !strings.ContainsFunc(key, isUpper) {
		return key
	}
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if isUpper(r) {
			b.WriteByte('-')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// CamelKey converts a hyphen-lowercase CSS property name to the camelCase
// tree key form, the reverse of hyphenate: flex-direction becomes
// flexDirection, -moz-appearance becomes MozAppearance.
func CamelKey(prop string) string {
	if !strings.Contains(prop, "-") {
		return prop
	}
	var b strings.Builder
	b.Grow(len(prop))
	up := false
	for _, r := range prop {
		if r == '-' {
			up = true
			continue
		}
		if up && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		up = false
		b.WriteRune(r)
	}
	return b.String()
}

// formatNumber renders a numeric value without exponent notation and
// without trailing zeros: 5 stays 5, 2.50 becomes 2.5.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// defaultUnitless lists the properties (normalized form) whose bare numbers
// are emitted without the implicit pixel unit. Everything else gets px
// appended. The set is extensible per compiler via WithUnitless.
var defaultUnitless = map[string]struct{}{
	"opacity":                   {},
	"z-index":                   {},
	"line-height":               {},
	"font-weight":               {},
	"flex":                      {},
	"flex-grow":                 {},
	"flex-shrink":               {},
	"order":                     {},
	"column-count":              {},
	"orphans":                   {},
	"widows":                    {},
	"zoom":                      {},
	"aspect-ratio":              {},
	"animation-iteration-count": {},
	"tab-size":                  {},
	"scale":                     {},
}
