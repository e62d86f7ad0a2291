// Package normalize provides deterministic text normalization shared by the
// fingerprint engine and the feed parser. It is intentionally small and
// dependency-light:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware folding (case, diacritics) so "Ulica Żelazna" and
//     "ulica zelazna" normalize identically
//   - Punctuation stripping and whitespace collapsing so cosmetic feed
//     differences do not register as content changes
//
// All functions are pure and safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes to NFD, drops combining marks, and recomposes.
// This maps accented letters to their ASCII base ("ż" → "z", "é" → "e").
var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Text folds s into its canonical comparison form: lower-cased,
// diacritic-folded, punctuation replaced by spaces, whitespace collapsed.
// The result is stable across cosmetic differences in feed encodings.
func Text(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(foldDiacritics, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true // swallow leading separators
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			// punctuation, symbols, and whitespace all collapse to one space
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Address normalizes a street address for identity comparison. Beyond Text
// folding it canonicalizes the most common street-type abbreviations so
// "Żelazna St. 10" and "zelazna street 10" compare equal.
func Address(s string) string {
	s = Text(s)
	if s == "" {
		return ""
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		if full, ok := streetAbbrev[f]; ok {
			fields[i] = full
		}
	}
	return strings.Join(fields, " ")
}

// streetAbbrev maps frequent street-type abbreviations to a canonical token.
var streetAbbrev = map[string]string{
	"st":   "street",
	"str":  "street",
	"ave":  "avenue",
	"av":   "avenue",
	"blvd": "boulevard",
	"rd":   "road",
	"sq":   "square",
	"ul":   "ulica",
	"al":   "aleja",
	"pl":   "plac",
}

// Collapse trims s and collapses internal whitespace runs to single spaces
// without any folding. Used for display fields (titles, districts) where the
// original casing should survive.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
